package model

// Page is the paginated wrapper the API nests inside the data envelope.
type Page[T any] struct {
	Data      []T `json:"data"`
	Page      int `json:"page"`
	PerPage   int `json:"per_page"`
	Total     int `json:"total"`
	TotalPage int `json:"total_page"`
}

type ListParams struct {
	Page    int
	PerPage int
}
