package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cinema-ticket-cli/config"
	"cinema-ticket-cli/model"
)

const (
	historyFile = "history.json"

	genreCacheTTL    = 7 * 24 * time.Hour
	scheduleCacheTTL = 10 * time.Minute
	maxRecentMovies  = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentMovie struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type movieHistory struct {
	Movies []RecentMovie `json:"movies"`
}

func LoadGenreCache() ([]model.Genre, bool, error) {
	path, err := cachePath("genres.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Genre](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= genreCacheTTL, nil
}

func SaveGenreCache(genres []model.Genre) error {
	path, err := cachePath("genres.json")
	if err != nil {
		return err
	}
	return saveCache(path, genres)
}

func LoadScheduleCache(date string) ([]model.Schedule, bool, error) {
	path, err := cachePath(fmt.Sprintf("schedules_%s.json", date))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Schedule](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= scheduleCacheTTL, nil
}

func SaveScheduleCache(date string, schedules []model.Schedule) error {
	path, err := cachePath(fmt.Sprintf("schedules_%s.json", date))
	if err != nil {
		return err
	}
	return saveCache(path, schedules)
}

// DropScheduleCache forgets the cached schedules of one date, e.g. after an
// admin edit or an explicit reload.
func DropScheduleCache(date string) error {
	path, err := cachePath(fmt.Sprintf("schedules_%s.json", date))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadRecentMovies returns the recently opened movies, newest first.
func LoadRecentMovies() ([]RecentMovie, error) {
	path, err := configPath(historyFile)
	if err != nil {
		return nil, err
	}
	history, err := readJSON[movieHistory](path)
	if err != nil {
		return nil, fmt.Errorf("invalid movie history: %w", err)
	}
	return history.Movies, nil
}

// RememberMovie moves movie to the front of the history, dropping an older
// entry with the same id or title.
func RememberMovie(movie model.Movie) error {
	path, err := configPath(historyFile)
	if err != nil {
		return err
	}
	history, _ := LoadRecentMovies()

	movies := make([]RecentMovie, 0, maxRecentMovies)
	movies = append(movies, RecentMovie{ID: movie.Id, Title: movie.Title})
	for _, seen := range history {
		if len(movies) == maxRecentMovies {
			break
		}
		sameID := seen.ID != 0 && seen.ID == movie.Id
		sameTitle := seen.Title != "" && strings.EqualFold(seen.Title, movie.Title)
		if !sameID && !sameTitle {
			movies = append(movies, seen)
		}
	}
	return writeJSON(path, movieHistory{Movies: movies})
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	return readJSON[cacheEnvelope[T]](path)
}

func saveCache[T any](path string, data T) error {
	return writeJSON(path, cacheEnvelope[T]{UpdatedAt: time.Now(), Data: data})
}

// readJSON decodes path into a T. A missing file yields the zero value.
func readJSON[T any](path string) (T, error) {
	var value T
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return value, nil
	}
	if err != nil {
		return value, err
	}
	err = json.Unmarshal(data, &value)
	return value, err
}

// writeJSON replaces path through a temp file so a crash never leaves a
// half-written session or cache behind.
func writeJSON(path string, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func configPath(name string) (string, error) {
	return appPath(os.UserConfigDir, name)
}

func cachePath(name string) (string, error) {
	return appPath(os.UserCacheDir, name)
}

func appPath(base func() (string, error), name string) (string, error) {
	dir, err := base()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.AppName, name), nil
}
