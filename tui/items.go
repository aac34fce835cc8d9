package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/store"
)

type dateItem struct {
	date time.Time
}

func (d dateItem) Title() string {
	if isSameDay(d.date, time.Now()) {
		return fmt.Sprintf("%s • %s (Today)", d.date.Format("Mon"), d.date.Format("02/01"))
	}
	return fmt.Sprintf("%s • %s", d.date.Format("Mon"), d.date.Format("02/01"))
}

func (d dateItem) Description() string {
	return d.date.Format(time.DateOnly)
}

func (d dateItem) FilterValue() string {
	return d.Title()
}

func buildDateItems(base time.Time) []list.Item {
	start := truncateDate(base)
	items := make([]list.Item, 0, 7)
	for i := 0; i < 7; i++ {
		items = append(items, dateItem{date: start.AddDate(0, 0, i)})
	}
	return items
}

func isSameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type movieItem struct {
	movie     model.Movie
	schedules []model.Schedule
	recent    bool
}

func (m movieItem) Title() string {
	return m.movie.Title
}

func (m movieItem) Description() string {
	parts := []string{}
	if m.recent {
		parts = append(parts, "Recent")
	}
	if genres := m.movie.GenreNames(); len(genres) > 0 {
		parts = append(parts, strings.Join(genres, ", "))
	}
	if m.movie.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%d min", m.movie.Duration))
	}
	parts = append(parts, fmt.Sprintf("%d shows", len(m.schedules)))
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join(append([]string{m.movie.Title}, m.movie.GenreNames()...), " "))
}

// buildMovieItems groups one day's schedules by movie. Recently opened movies
// come first, the rest alphabetically.
func buildMovieItems(schedules []model.Schedule, recents []store.RecentMovie) []list.Item {
	groups := make(map[int]*movieItem)
	for _, schedule := range schedules {
		key := schedule.MovieId
		if key == 0 {
			key = schedule.Movie.Id
		}
		item, ok := groups[key]
		if !ok {
			movie := schedule.Movie
			if movie.Id == 0 {
				movie.Id = key
			}
			if movie.Title == "" {
				movie.Title = "Movie #" + strconv.Itoa(key)
			}
			item = &movieItem{movie: movie}
			groups[key] = item
		}
		item.schedules = append(item.schedules, schedule)
	}

	recentRank := make(map[int]int, len(recents))
	for i, recent := range recents {
		recentRank[recent.ID] = i + 1
	}

	keys := maps.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := recentRank[keys[i]], recentRank[keys[j]]
		if (ri > 0) != (rj > 0) {
			return ri > 0
		}
		if ri > 0 && ri != rj {
			return ri < rj
		}
		return strings.ToLower(groups[keys[i]].movie.Title) < strings.ToLower(groups[keys[j]].movie.Title)
	})

	items := make([]list.Item, 0, len(keys))
	for _, key := range keys {
		item := groups[key]
		item.recent = recentRank[key] > 0
		items = append(items, *item)
	}
	return items
}

type scheduleItem struct {
	schedule model.Schedule
}

func (s scheduleItem) Title() string {
	studio := strings.TrimSpace(s.schedule.Studio.Name)
	if studio == "" {
		studio = "Studio " + strconv.Itoa(s.schedule.StudioId)
	}
	return fmt.Sprintf("%s • %s", s.schedule.StartTime.Local().Format("15:04"), studio)
}

func (s scheduleItem) Description() string {
	parts := []string{booking.FormatRupiah(s.schedule.Price)}
	if facilities := s.schedule.Studio.FacilityNames(); len(facilities) > 0 {
		parts = append(parts, strings.Join(facilities, ", "))
	}
	if s.schedule.Studio.SeatCapacity > 0 {
		parts = append(parts, fmt.Sprintf("%d seats", s.schedule.Studio.SeatCapacity))
	}
	if !s.schedule.EndTime.IsZero() {
		parts = append(parts, "ends "+s.schedule.EndTime.Local().Format("15:04"))
	}
	return strings.Join(parts, " • ")
}

func (s scheduleItem) FilterValue() string {
	return strings.ToLower(strings.Join(append([]string{s.schedule.Studio.Name, s.schedule.StartTime.Local().Format("15:04")}, s.schedule.Studio.FacilityNames()...), " "))
}

// buildScheduleItems orders shows by studio, then start time.
func buildScheduleItems(schedules []model.Schedule) []list.Item {
	sorted := append([]model.Schedule(nil), schedules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Studio.Name != b.Studio.Name {
			return a.Studio.Name < b.Studio.Name
		}
		return a.StartTime.Before(b.StartTime)
	})
	items := make([]list.Item, 0, len(sorted))
	for _, schedule := range sorted {
		items = append(items, scheduleItem{schedule: schedule})
	}
	return items
}

type promoItem struct {
	promo    model.Promo
	discount decimal.Decimal
}

func (p promoItem) Title() string {
	if p.promo.Name != "" {
		return fmt.Sprintf("%s • %s", p.promo.Code, p.promo.Name)
	}
	return p.promo.Code
}

func (p promoItem) Description() string {
	parts := []string{booking.DescribePromo(p.promo)}
	if p.discount.IsPositive() {
		parts = append(parts, "saves "+booking.FormatRupiah(p.discount))
	}
	if p.promo.MinTickets > 1 {
		parts = append(parts, fmt.Sprintf("min %d tickets", p.promo.MinTickets))
	}
	if !p.promo.ValidUntil.IsZero() {
		parts = append(parts, "until "+p.promo.ValidUntil.Local().Format("02 Jan"))
	}
	return strings.Join(parts, " • ")
}

func (p promoItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{p.promo.Code, p.promo.Name, p.promo.Description}, " "))
}

// buildPromoItems previews each promo against the current subtotal.
func buildPromoItems(promos []model.Promo, subtotal decimal.Decimal) []list.Item {
	items := make([]list.Item, 0, len(promos))
	for _, promo := range promos {
		items = append(items, promoItem{promo: promo, discount: booking.Discount(subtotal, promo)})
	}
	return items
}

type orderItem struct {
	order model.Transaction
}

func (o orderItem) Title() string {
	title := fmt.Sprintf("#%d", o.order.Id)
	if schedule, ok := o.order.Schedule(); ok && schedule.Movie.Title != "" {
		title += " • " + schedule.Movie.Title
	}
	return title
}

func (o orderItem) Description() string {
	parts := []string{booking.FormatRupiah(o.order.TotalAmount), o.order.PaymentStatus}
	if o.order.PaymentMethod != "" {
		parts = append(parts, model.PaymentMethodLabel(o.order.PaymentMethod))
	}
	if schedule, ok := o.order.Schedule(); ok && !schedule.StartTime.IsZero() {
		parts = append(parts, schedule.StartTime.Local().Format("02 Jan 15:04"))
	}
	parts = append(parts, fmt.Sprintf("%d seats", len(o.order.Tickets)))
	return strings.Join(parts, " • ")
}

func (o orderItem) FilterValue() string {
	return strings.ToLower(o.Title() + " " + o.order.PaymentStatus)
}

func buildOrderItems(orders []model.Transaction) []list.Item {
	items := make([]list.Item, 0, len(orders))
	for _, order := range orders {
		items = append(items, orderItem{order: order})
	}
	return items
}
