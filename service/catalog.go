package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/model"
)

// PosterFile is an image attached to a movie create or update.
type PosterFile struct {
	Name     string
	Contents io.Reader
}

func (c *Client) ListMovies(ctx context.Context, params model.ListParams) (model.Page[model.Movie], error) {
	var page model.Page[model.Movie]
	if err := c.get(ctx, "/movies", pageQuery(params), &page); err != nil {
		return model.Page[model.Movie]{}, err
	}
	return page, nil
}

func (c *Client) GetMovie(ctx context.Context, id int) (model.Movie, error) {
	if id <= 0 {
		return model.Movie{}, errors.New("movie id is required")
	}
	var movie model.Movie
	if err := c.get(ctx, fmt.Sprintf("/movies/%d", id), nil, &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// CreateMovie posts a movie. With a poster the request goes out as
// multipart form data, otherwise as JSON.
func (c *Client) CreateMovie(ctx context.Context, in model.MovieInput, poster *PosterFile) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("movie title is required")
	}
	return c.saveMovie(ctx, http.MethodPost, "/movies", in, poster)
}

func (c *Client) UpdateMovie(ctx context.Context, id int, in model.MovieInput, poster *PosterFile) error {
	if id <= 0 {
		return errors.New("movie id is required")
	}
	return c.saveMovie(ctx, http.MethodPut, fmt.Sprintf("/movies/%d", id), in, poster)
}

func (c *Client) DeleteMovie(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/movies", id)
}

func (c *Client) saveMovie(ctx context.Context, method, path string, in model.MovieInput, poster *PosterFile) error {
	if poster == nil {
		return c.sendJSON(ctx, method, path, in, nil)
	}
	fields := url.Values{}
	fields.Set("title", in.Title)
	fields.Set("overview", in.Overview)
	fields.Set("duration", strconv.Itoa(in.Duration))
	for _, id := range in.GenreIds {
		fields.Add("genre_ids", strconv.Itoa(id))
	}
	return c.sendMultipart(ctx, method, path, fields, &formFile{field: "poster", name: poster.Name, contents: poster.Contents}, nil)
}

func (c *Client) ListGenres(ctx context.Context, params model.ListParams) (model.Page[model.Genre], error) {
	var page model.Page[model.Genre]
	if err := c.get(ctx, "/genres", pageQuery(params), &page); err != nil {
		return model.Page[model.Genre]{}, err
	}
	return page, nil
}

func (c *Client) CreateGenre(ctx context.Context, name string) error {
	return c.saveNamed(ctx, http.MethodPost, "/genres", name)
}

func (c *Client) UpdateGenre(ctx context.Context, id int, name string) error {
	if id <= 0 {
		return errors.New("genre id is required")
	}
	return c.saveNamed(ctx, http.MethodPut, fmt.Sprintf("/genres/%d", id), name)
}

func (c *Client) DeleteGenre(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/genres", id)
}

func (c *Client) ListFacilities(ctx context.Context, params model.ListParams) (model.Page[model.Facility], error) {
	var page model.Page[model.Facility]
	if err := c.get(ctx, "/facilities", pageQuery(params), &page); err != nil {
		return model.Page[model.Facility]{}, err
	}
	return page, nil
}

func (c *Client) CreateFacility(ctx context.Context, name string) error {
	return c.saveNamed(ctx, http.MethodPost, "/facilities", name)
}

func (c *Client) UpdateFacility(ctx context.Context, id int, name string) error {
	if id <= 0 {
		return errors.New("facility id is required")
	}
	return c.saveNamed(ctx, http.MethodPut, fmt.Sprintf("/facilities/%d", id), name)
}

func (c *Client) DeleteFacility(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/facilities", id)
}

func (c *Client) ListStudios(ctx context.Context, params model.ListParams) (model.Page[model.Studio], error) {
	var page model.Page[model.Studio]
	if err := c.get(ctx, "/studios", pageQuery(params), &page); err != nil {
		return model.Page[model.Studio]{}, err
	}
	return page, nil
}

func (c *Client) saveNamed(ctx context.Context, method, path, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	return c.sendJSON(ctx, method, path, model.NameInput{Name: name}, nil)
}

func (c *Client) deleteByID(ctx context.Context, collection string, id int) error {
	if id <= 0 {
		return errors.Newf("%s id is required", strings.TrimPrefix(collection, "/"))
	}
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", collection, id), nil, nil)
}

func pageQuery(params model.ListParams) url.Values {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(params.PerPage))
	}
	return query
}
