package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/store"
)

func newMoviesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if recent, _ := cmd.Flags().GetBool("recent"); recent {
				return printRecentMovies(e)
			}

			ctx, cancel := e.ctx()
			defer cancel()

			genre, _ := cmd.Flags().GetString("genre")
			var genreID int
			if strings.TrimSpace(genre) != "" {
				ids, err := resolveGenres(ctx, e, genre)
				if err != nil {
					return err
				}
				genreID = ids[0]
			}

			page, err := e.client.ListMovies(ctx, pageParams(cmd))
			if err != nil {
				return err
			}

			t := newTable(e.out, table.Row{"ID", "Title", "Duration", "Genres"})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 40}})
			for _, movie := range page.Data {
				if genreID > 0 && !hasGenre(movie, genreID) {
					continue
				}
				t.AppendRow(table.Row{
					movie.Id,
					movie.Title,
					fmt.Sprintf("%d min", movie.Duration),
					orDash(strings.Join(movie.GenreNames(), ", ")),
				})
			}
			renderPage(t, page.Page, page.TotalPage, page.Total)
			return nil
		},
	}
	addPageFlags(cmd)
	cmd.Flags().String("genre", "", "only show movies of this genre (name or id)")
	cmd.Flags().Bool("recent", false, "show recently viewed movies instead")
	return cmd
}

func printRecentMovies(e *env) error {
	recents, err := store.LoadRecentMovies()
	if err != nil {
		return err
	}
	if len(recents) == 0 {
		fmt.Fprintln(e.out, "No recently viewed movies.")
		return nil
	}
	t := newTable(e.out, table.Row{"ID", "Title"})
	for _, recent := range recents {
		t.AppendRow(table.Row{recent.ID, recent.Title})
	}
	t.Render()
	return nil
}

func hasGenre(movie model.Movie, genreID int) bool {
	for _, id := range movie.GenreIds {
		if id == genreID {
			return true
		}
	}
	for _, genre := range movie.Genres {
		if genre.Id == genreID {
			return true
		}
	}
	return false
}

func newMovieCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "movie <id>",
		Short: "Show a movie and its upcoming screenings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()

			movie, err := e.client.GetMovie(ctx, id)
			if err != nil {
				return err
			}
			if err := store.RememberMovie(movie); err != nil {
				e.log.WithError(err).Debug("recent movies not saved")
			}

			fmt.Fprintf(e.out, "%s (%d min)\n", movie.Title, movie.Duration)
			if genres := movie.GenreNames(); len(genres) > 0 {
				fmt.Fprintln(e.out, strings.Join(genres, ", "))
			}
			if poster := e.cfg.MediaURL(movie.PosterURL); poster != "" {
				fmt.Fprintln(e.out, poster)
			}
			if synopsis := movie.Synopsis(); synopsis != "" {
				fmt.Fprintf(e.out, "\n%s\n", synopsis)
			}

			today := time.Now().Format(time.DateOnly)
			page, err := e.client.ListSchedules(ctx, model.ScheduleFilter{
				DateFrom:   today,
				MovieTitle: movie.Title,
			}, model.ListParams{Page: 1, PerPage: 50})
			if err != nil {
				return err
			}
			var schedules []model.Schedule
			for _, schedule := range page.Data {
				if schedule.MovieId == 0 || schedule.MovieId == movie.Id {
					schedules = append(schedules, schedule)
				}
			}
			fmt.Fprintln(e.out)
			if len(schedules) == 0 {
				fmt.Fprintln(e.out, "No upcoming screenings.")
				return nil
			}
			printSchedules(e, schedules)
			return nil
		},
	}
}

func newSchedulesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List screenings of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			date, err := normalizeDate(date)
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("movie")
			refresh, _ := cmd.Flags().GetBool("refresh")

			ctx, cancel := e.ctx()
			defer cancel()

			schedules, err := schedulesOn(ctx, e, date, refresh)
			if err != nil {
				return err
			}
			if title = strings.TrimSpace(title); title != "" {
				filtered := schedules[:0]
				for _, schedule := range schedules {
					if strings.Contains(strings.ToLower(schedule.Movie.Title), strings.ToLower(title)) {
						filtered = append(filtered, schedule)
					}
				}
				schedules = filtered
			}
			if len(schedules) == 0 {
				fmt.Fprintf(e.out, "No screenings on %s.\n", date)
				return nil
			}
			printSchedules(e, schedules)
			return nil
		},
	}
	cmd.Flags().String("date", "", "day to list, YYYY-MM-DD (default today)")
	cmd.Flags().String("movie", "", "only show screenings whose title contains this text")
	cmd.Flags().Bool("refresh", false, "ignore cached schedules")
	return cmd
}

// schedulesOn serves a day's schedules from the short-lived cache when it
// is fresh.
func schedulesOn(ctx context.Context, e *env, date string, refresh bool) ([]model.Schedule, error) {
	if refresh {
		_ = store.DropScheduleCache(date)
	} else if cached, fresh, err := store.LoadScheduleCache(date); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	schedules, err := e.client.SchedulesOn(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := store.SaveScheduleCache(date, schedules); err != nil {
		e.log.WithError(err).Debug("schedule cache not saved")
	}
	return schedules, nil
}

func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "today":
		return time.Now().Format(time.DateOnly), nil
	case "tomorrow":
		return time.Now().AddDate(0, 0, 1).Format(time.DateOnly), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return "", errors.Newf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day.Format(time.DateOnly), nil
}

// printSchedules groups screenings by movie, earliest first within a movie.
func printSchedules(e *env, schedules []model.Schedule) {
	byMovie := make(map[string][]model.Schedule)
	for _, schedule := range schedules {
		title := orDash(schedule.Movie.Title)
		byMovie[title] = append(byMovie[title], schedule)
	}
	titles := maps.Keys(byMovie)
	sort.Strings(titles)

	t := newTable(e.out, table.Row{"Movie", "ID", "Time", "Studio", "Price"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 30},
		{Number: 4, AutoMerge: true},
	})
	t.Style().Options.SeparateRows = true

	for _, title := range titles {
		group := byMovie[title]
		sort.Slice(group, func(i, j int) bool {
			return group[i].StartTime.Before(group[j].StartTime)
		})
		var rows []table.Row
		for _, schedule := range group {
			rows = append(rows, table.Row{
				title,
				schedule.Id,
				formatShowtime(schedule.StartTime),
				orDash(schedule.Studio.Name),
				booking.FormatRupiah(schedule.Price),
			})
		}
		t.AppendRows(rows, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()
}

func newSeatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seats <schedule-id>",
		Short: "Show the seat map of a screening",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()

			schedule, seats, err := loadSeatMap(ctx, e, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%s, %s, %s\n", schedule.Movie.Title, orDash(schedule.Studio.Name), formatShowtime(schedule.StartTime))
			printSeatMap(e, seats)
			free := seats.Capacity() - seats.BookedCount()
			fmt.Fprintf(e.out, "%d of %d seats free, %s per seat\n", free, seats.Capacity(), booking.FormatRupiah(schedule.Price))
			return nil
		},
	}
}

// loadSeatMap always asks the API for booked seats; a cached seat state
// would let two buyers pick the same seat.
func loadSeatMap(ctx context.Context, e *env, scheduleID int) (model.Schedule, *booking.Map, error) {
	var (
		schedule model.Schedule
		booked   []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schedule, err = e.client.GetSchedule(gctx, scheduleID)
		return err
	})
	g.Go(func() error {
		var err error
		if booked, err = e.client.BookedSeats(gctx, scheduleID); err != nil {
			return errors.Wrap(err, "load booked seats")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Schedule{}, nil, err
	}

	capacity := schedule.Studio.SeatCapacity
	if capacity <= 0 {
		capacity = booking.FallbackCapacity
	}
	return schedule, booking.NewMap(capacity, booked, e.cfg.MaxSeats), nil
}

func printSeatMap(e *env, seats *booking.Map) {
	header := table.Row{""}
	for col := 1; col <= seats.Columns(); col++ {
		header = append(header, strconv.Itoa(col))
	}
	t := newTable(e.out, header)
	t.SetTitle("SCREEN")
	t.Style().Title.Align = text.AlignCenter

	for _, row := range seats.Rows() {
		cells := table.Row{booking.RowLabel(row[0].Row)}
		for _, seat := range row {
			switch {
			case seat.Booked:
				cells = append(cells, "XX")
			case seat.Selected:
				cells = append(cells, seat.Label+"*")
			default:
				cells = append(cells, seat.Label)
			}
		}
		t.AppendRow(cells)
	}
	t.Render()
}

func newPromosCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "promos",
		Short: "List active promo codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			promos, err := e.client.ActivePromos(ctx)
			if err != nil {
				return err
			}
			if len(promos) == 0 {
				fmt.Fprintln(e.out, "No active promos.")
				return nil
			}
			printPromos(e, promos)
			return nil
		},
	}
}

func printPromos(e *env, promos []model.Promo) {
	t := newTable(e.out, table.Row{"ID", "Code", "Name", "Discount", "Min Tickets", "Valid Until", "Active"})
	for _, promo := range promos {
		until := "-"
		if !promo.ValidUntil.IsZero() {
			until = promo.ValidUntil.Local().Format(time.DateOnly)
		}
		t.AppendRow(table.Row{
			promo.Id,
			promo.Code,
			promo.Name,
			booking.DescribePromo(promo),
			promo.MinTickets,
			until,
			promo.IsActive,
		})
	}
	t.Render()
}
