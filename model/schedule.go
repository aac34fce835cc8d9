package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Facility struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Studio struct {
	Id           int        `json:"id"`
	Name         string     `json:"name"`
	SeatCapacity int        `json:"seat_capacity"`
	Facilities   []Facility `json:"facilities,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

func (s Studio) FacilityNames() []string {
	names := make([]string, 0, len(s.Facilities))
	for _, facility := range s.Facilities {
		if facility.Name != "" {
			names = append(names, facility.Name)
		}
	}
	return names
}

type Schedule struct {
	Id        int             `json:"id"`
	MovieId   int             `json:"movie_id"`
	StudioId  int             `json:"studio_id"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Date      time.Time       `json:"date"`
	Price     decimal.Decimal `json:"price"`
	Movie     Movie           `json:"movie"`
	Studio    Studio          `json:"studio"`
}

type ScheduleInput struct {
	MovieId   int             `json:"movie_id"`
	StudioId  int             `json:"studio_id"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	Date      string          `json:"date,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

// ScheduleFilter mirrors the query parameters accepted by GET /schedules.
type ScheduleFilter struct {
	DateFrom   string
	DateTo     string
	MovieTitle string
	StudioId   int
}
