package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/model"
)

func (c *Client) ListSchedules(ctx context.Context, filter model.ScheduleFilter, params model.ListParams) (model.Page[model.Schedule], error) {
	query := pageQuery(params)
	if filter.DateFrom != "" {
		query.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query.Set("date_to", filter.DateTo)
	}
	if title := strings.TrimSpace(filter.MovieTitle); title != "" {
		query.Set("movie_title", title)
	}
	if filter.StudioId > 0 {
		query.Set("studio_id", strconv.Itoa(filter.StudioId))
	}

	var page model.Page[model.Schedule]
	if err := c.get(ctx, "/schedules", query, &page); err != nil {
		return model.Page[model.Schedule]{}, err
	}
	return page, nil
}

// SchedulesOn walks every page of schedules for one date (YYYY-MM-DD).
func (c *Client) SchedulesOn(ctx context.Context, date string) ([]model.Schedule, error) {
	if date == "" {
		return nil, errors.New("date is required")
	}
	filter := model.ScheduleFilter{DateFrom: date, DateTo: date}
	params := model.ListParams{Page: 1, PerPage: 100}

	var schedules []model.Schedule
	for {
		page, err := c.ListSchedules(ctx, filter, params)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, page.Data...)
		if len(page.Data) == 0 || page.TotalPage <= params.Page {
			return schedules, nil
		}
		params.Page++
	}
}

func (c *Client) GetSchedule(ctx context.Context, id int) (model.Schedule, error) {
	if id <= 0 {
		return model.Schedule{}, errors.New("schedule id is required")
	}
	var schedule model.Schedule
	if err := c.get(ctx, fmt.Sprintf("/schedules/%d", id), nil, &schedule); err != nil {
		return model.Schedule{}, err
	}
	return schedule, nil
}

func (c *Client) CreateSchedule(ctx context.Context, in model.ScheduleInput) error {
	if in.MovieId <= 0 || in.StudioId <= 0 {
		return errors.New("movie id and studio id are required")
	}
	return c.sendJSON(ctx, http.MethodPost, "/schedules", in, nil)
}

func (c *Client) UpdateSchedule(ctx context.Context, id int, in model.ScheduleInput) error {
	if id <= 0 {
		return errors.New("schedule id is required")
	}
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/schedules/%d", id), in, nil)
}

func (c *Client) DeleteSchedule(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/schedules", id)
}

// BookedSeats returns the seat numbers already held for a schedule.
// Cancelled, failed and expired tickets release their seat. A server that
// does not expose the endpoint yields no booked seats.
func (c *Client) BookedSeats(ctx context.Context, scheduleID int) ([]int, error) {
	if scheduleID <= 0 {
		return nil, errors.New("schedule id is required")
	}
	var raw json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/tickets/by-schedule/%d", scheduleID), nil, &raw); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	tickets, err := decodeTickets(raw)
	if err != nil {
		return nil, err
	}
	seats := make([]int, 0, len(tickets))
	for _, ticket := range tickets {
		if releasesSeat(ticket.Status) || ticket.SeatNumber <= 0 {
			continue
		}
		seats = append(seats, ticket.SeatNumber)
	}
	return seats, nil
}

func decodeTickets(raw json.RawMessage) ([]model.Ticket, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var tickets []model.Ticket
	if err := json.Unmarshal(raw, &tickets); err == nil {
		return tickets, nil
	}
	var page model.Page[model.Ticket]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.Wrap(err, "decode booked tickets")
	}
	return page.Data, nil
}

func releasesSeat(status string) bool {
	switch strings.ToLower(status) {
	case "cancelled", "canceled", "failed", "expired":
		return true
	}
	return false
}
