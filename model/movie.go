package model

import "time"

type Genre struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Movie struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration"`
	ReleaseDate string    `json:"release_date,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	GenreIds    []int     `json:"genre_ids,omitempty"`
	Genres      []Genre   `json:"genres,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Synopsis prefers the overview and falls back to the description.
func (m Movie) Synopsis() string {
	if m.Overview != "" {
		return m.Overview
	}
	return m.Description
}

func (m Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, genre := range m.Genres {
		if genre.Name != "" {
			names = append(names, genre.Name)
		}
	}
	return names
}

type MovieInput struct {
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Duration int    `json:"duration"`
	GenreIds []int  `json:"genre_ids"`
}

// NameInput is the body shared by the genre and facility endpoints.
type NameInput struct {
	Name string `json:"name"`
}
