package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
)

func newAdminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the catalog, promos, schedules and users",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.setup(); err != nil {
				return err
			}
			if err := requireLogin(e); err != nil {
				return err
			}
			if user, ok := e.sessions.User(); ok && !user.IsAdmin() {
				return errors.New("admin commands need an admin account")
			}
			return nil
		},
	}
	cmd.AddCommand(
		newNamedAdminCmd(e, namedResource{
			use:    "genres",
			noun:   "genre",
			list:   (*service.Client).ListGenres,
			create: (*service.Client).CreateGenre,
			update: (*service.Client).UpdateGenre,
			remove: (*service.Client).DeleteGenre,
		}),
		newNamedAdminCmd(e, namedResource{
			use:    "facilities",
			noun:   "facility",
			list:   listFacilitiesAsNamed,
			create: (*service.Client).CreateFacility,
			update: (*service.Client).UpdateFacility,
			remove: (*service.Client).DeleteFacility,
		}),
		newAdminStudiosCmd(e),
		newAdminMoviesCmd(e),
		newAdminPromosCmd(e),
		newAdminSchedulesCmd(e),
		newAdminUsersCmd(e),
	)
	return cmd
}

// namedResource describes the genre and facility endpoints, which share a
// single "name" body.
type namedResource struct {
	use    string
	noun   string
	list   func(*service.Client, context.Context, model.ListParams) (model.Page[model.Genre], error)
	create func(*service.Client, context.Context, string) error
	update func(*service.Client, context.Context, int, string) error
	remove func(*service.Client, context.Context, int) error
}

// listFacilitiesAsNamed adapts facilities to the genre-shaped listing.
func listFacilitiesAsNamed(c *service.Client, ctx context.Context, params model.ListParams) (model.Page[model.Genre], error) {
	page, err := c.ListFacilities(ctx, params)
	if err != nil {
		return model.Page[model.Genre]{}, err
	}
	named := model.Page[model.Genre]{Page: page.Page, PerPage: page.PerPage, Total: page.Total, TotalPage: page.TotalPage}
	for _, facility := range page.Data {
		named.Data = append(named.Data, model.Genre{Id: facility.Id, Name: facility.Name})
	}
	return named, nil
}

func newNamedAdminCmd(e *env, res namedResource) *cobra.Command {
	cmd := &cobra.Command{
		Use:   res.use,
		Short: "Manage " + res.use,
	}

	refreshGenres := func(ctx context.Context) {
		if res.noun == "genre" {
			if _, err := fetchGenres(ctx, e); err != nil {
				e.log.WithError(err).Debug("genre cache not refreshed")
			}
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + res.use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			page, err := res.list(e.client, ctx, pageParams(cmd))
			if err != nil {
				return err
			}
			t := newTable(e.out, table.Row{"ID", "Name"})
			for _, item := range page.Data {
				t.AppendRow(table.Row{item.Id, item.Name})
			}
			renderPage(t, page.Page, page.TotalPage, page.Total)
			return nil
		},
	}
	addPageFlags(list)

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a " + res.noun,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			name := strings.Join(args, " ")
			if err := res.create(e.client, ctx, name); err != nil {
				return err
			}
			refreshGenres(ctx)
			fmt.Fprintf(e.out, "Created %s %q.\n", res.noun, name)
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a " + res.noun,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := res.update(e.client, ctx, id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			refreshGenres(ctx)
			fmt.Fprintf(e.out, "Updated %s #%d.\n", res.noun, id)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + res.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := res.remove(e.client, ctx, id); err != nil {
				return err
			}
			refreshGenres(ctx)
			fmt.Fprintf(e.out, "Deleted %s #%d.\n", res.noun, id)
			return nil
		},
	}

	cmd.AddCommand(list, add, rename, remove)
	return cmd
}

func newAdminStudiosCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studios",
		Short: "List studios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			page, err := e.client.ListStudios(ctx, pageParams(cmd))
			if err != nil {
				return err
			}
			t := newTable(e.out, table.Row{"ID", "Name", "Seats", "Layout", "Facilities"})
			for _, studio := range page.Data {
				capacity := studio.SeatCapacity
				if capacity <= 0 {
					capacity = booking.FallbackCapacity
				}
				columns := booking.Columns(capacity)
				rows := (capacity-1)/columns + 1
				t.AppendRow(table.Row{
					studio.Id,
					studio.Name,
					studio.SeatCapacity,
					fmt.Sprintf("%d rows x %d", rows, columns),
					orDash(strings.Join(studio.FacilityNames(), ", ")),
				})
			}
			renderPage(t, page.Page, page.TotalPage, page.Total)
			return nil
		},
	}
	addPageFlags(cmd)
	return cmd
}

// fetchGenres loads every genre and refreshes the local cache.
func fetchGenres(ctx context.Context, e *env) ([]model.Genre, error) {
	page, err := e.client.ListGenres(ctx, model.ListParams{Page: 1, PerPage: 100})
	if err != nil {
		return nil, err
	}
	if err := store.SaveGenreCache(page.Data); err != nil {
		e.log.WithError(err).Debug("genre cache not saved")
	}
	return page.Data, nil
}

// resolveGenres maps a comma separated list of genre names or ids to ids.
// Names are matched case-insensitively against the cached genre list.
func resolveGenres(ctx context.Context, e *env, raw string) ([]int, error) {
	var genres []model.Genre
	loaded := false

	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			ids = append(ids, id)
			continue
		}
		if !loaded {
			cached, fresh, err := store.LoadGenreCache()
			if err != nil || !fresh || len(cached) == 0 {
				if cached, err = fetchGenres(ctx, e); err != nil {
					return nil, errors.Wrap(err, "load genres")
				}
			}
			genres, loaded = cached, true
		}
		found := false
		for _, genre := range genres {
			if strings.EqualFold(genre.Name, part) {
				ids = append(ids, genre.Id)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Newf("unknown genre %q", part)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("no genres given")
	}
	return ids, nil
}

func newAdminMoviesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Manage movies",
	}

	list := newMoviesCmd(e)
	list.Use = "list"

	addFlags := func(c *cobra.Command) {
		c.Flags().String("title", "", "movie title")
		c.Flags().String("overview", "", "short synopsis")
		c.Flags().Int("duration", 0, "runtime in minutes")
		c.Flags().String("genres", "", "comma separated genre names or ids")
		c.Flags().String("poster", "", "poster image to upload")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a movie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			in, poster, closePoster, err := movieInput(ctx, e, cmd, model.Movie{})
			if err != nil {
				return err
			}
			defer closePoster()
			if in.Title == "" || in.Duration <= 0 {
				return errors.New("--title and --duration are required")
			}
			if err := e.client.CreateMovie(ctx, in, poster); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created movie %q.\n", in.Title)
			return nil
		},
	}
	addFlags(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			current, err := e.client.GetMovie(ctx, id)
			if err != nil {
				return err
			}
			in, poster, closePoster, err := movieInput(ctx, e, cmd, current)
			if err != nil {
				return err
			}
			defer closePoster()
			if err := e.client.UpdateMovie(ctx, id, in, poster); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Updated movie #%d.\n", id)
			return nil
		},
	}
	addFlags(update)

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.DeleteMovie(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted movie #%d.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, remove)
	return cmd
}

// movieInput merges the flags that were set over current. The returned func
// closes the poster file, if one was opened.
func movieInput(ctx context.Context, e *env, cmd *cobra.Command, current model.Movie) (model.MovieInput, *service.PosterFile, func(), error) {
	noop := func() {}
	in := model.MovieInput{
		Title:    current.Title,
		Overview: current.Synopsis(),
		Duration: current.Duration,
		GenreIds: current.GenreIds,
	}
	if len(in.GenreIds) == 0 {
		for _, genre := range current.Genres {
			in.GenreIds = append(in.GenreIds, genre.Id)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title, _ = flags.GetString("title")
		in.Title = strings.TrimSpace(in.Title)
	}
	if flags.Changed("overview") {
		in.Overview, _ = flags.GetString("overview")
	}
	if flags.Changed("duration") {
		in.Duration, _ = flags.GetInt("duration")
	}
	if flags.Changed("genres") {
		raw, _ := flags.GetString("genres")
		ids, err := resolveGenres(ctx, e, raw)
		if err != nil {
			return model.MovieInput{}, nil, noop, err
		}
		in.GenreIds = ids
	}

	path, _ := flags.GetString("poster")
	if strings.TrimSpace(path) == "" {
		return in, nil, noop, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return model.MovieInput{}, nil, noop, errors.Wrap(err, "open poster")
	}
	poster := &service.PosterFile{Name: filepath.Base(path), Contents: file}
	return in, poster, func() { _ = file.Close() }, nil
}

func newAdminPromosCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promos",
		Short: "Manage promo codes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List promos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active")
			ctx, cancel := e.ctx()
			defer cancel()
			page, err := e.client.ListPromos(ctx, activeOnly, pageParams(cmd))
			if err != nil {
				return err
			}
			printPromos(e, page.Data)
			return nil
		},
	}
	addPageFlags(list)
	list.Flags().Bool("active", false, "only active promos")

	addFlags := func(c *cobra.Command) {
		c.Flags().String("name", "", "promo name")
		c.Flags().String("code", "", "code customers type at checkout")
		c.Flags().String("description", "", "description")
		c.Flags().String("type", model.PromoPercentage, "percentage or fixed_amount")
		c.Flags().String("value", "", "discount value (percent or amount)")
		c.Flags().String("max-discount", "", "cap for percentage promos")
		c.Flags().Int("min-tickets", 0, "minimum tickets per booking")
		c.Flags().Bool("active", true, "promo can be used")
		c.Flags().String("from", "", "valid from, YYYY-MM-DD")
		c.Flags().String("until", "", "valid until, YYYY-MM-DD")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a promo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := promoInput(cmd, model.Promo{IsActive: true})
			if err != nil {
				return err
			}
			if in.Code == "" || in.DiscountValue == nil {
				return errors.New("--code and --value are required")
			}
			if in.Name == "" {
				in.Name = in.Code
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.CreatePromo(ctx, in); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created promo %s.\n", in.Code)
			return nil
		},
	}
	addFlags(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a promo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			current, err := findPromoByID(ctx, e, id)
			if err != nil {
				return err
			}
			in, err := promoInput(cmd, current)
			if err != nil {
				return err
			}
			if err := e.client.UpdatePromo(ctx, id, in); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Updated promo #%d.\n", id)
			return nil
		},
	}
	addFlags(update)

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a promo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.DeletePromo(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted promo #%d.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, remove)
	return cmd
}

// findPromoByID pages through promos; the API has no single-promo lookup
// for admins.
func findPromoByID(ctx context.Context, e *env, id int) (model.Promo, error) {
	params := model.ListParams{Page: 1, PerPage: 100}
	for {
		page, err := e.client.ListPromos(ctx, false, params)
		if err != nil {
			return model.Promo{}, err
		}
		for _, promo := range page.Data {
			if promo.Id == id {
				return promo, nil
			}
		}
		if len(page.Data) == 0 || page.TotalPage <= params.Page {
			return model.Promo{}, errors.Newf("promo #%d not found", id)
		}
		params.Page++
	}
}

func promoInput(cmd *cobra.Command, current model.Promo) (model.PromoInput, error) {
	in := model.PromoInput{
		Name:         current.Name,
		Code:         current.Code,
		Description:  current.Description,
		DiscountType: current.DiscountType,
		MinTickets:   current.MinTickets,
		MaxDiscount:  current.MaxDiscount,
		IsActive:     current.IsActive,
	}
	if !current.DiscountValue.IsZero() {
		value := current.DiscountValue
		in.DiscountValue = &value
	}
	if !current.ValidFrom.IsZero() {
		in.ValidFrom = current.ValidFrom.Format(time.RFC3339)
	}
	if !current.ValidUntil.IsZero() {
		in.ValidUntil = current.ValidUntil.Format(time.RFC3339)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name, _ = flags.GetString("name")
	}
	if flags.Changed("code") {
		code, _ := flags.GetString("code")
		in.Code = strings.ToUpper(strings.TrimSpace(code))
	}
	if flags.Changed("description") {
		in.Description, _ = flags.GetString("description")
	}
	if flags.Changed("type") || in.DiscountType == "" {
		kind, _ := flags.GetString("type")
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case model.PromoPercentage:
			in.DiscountType = model.PromoPercentage
		case model.PromoFixedAmount, "fixed":
			in.DiscountType = model.PromoFixedAmount
		default:
			return model.PromoInput{}, errors.Newf("unknown promo type %q", kind)
		}
	}
	for _, amount := range []struct {
		flag string
		dst  **decimal.Decimal
	}{{"value", &in.DiscountValue}, {"max-discount", &in.MaxDiscount}} {
		if !flags.Changed(amount.flag) {
			continue
		}
		raw, _ := flags.GetString(amount.flag)
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || value.IsNegative() {
			return model.PromoInput{}, errors.Newf("invalid --%s %q", amount.flag, raw)
		}
		*amount.dst = &value
	}
	if in.DiscountType == model.PromoPercentage && in.DiscountValue != nil && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return model.PromoInput{}, errors.New("a percentage discount cannot exceed 100")
	}
	if flags.Changed("min-tickets") {
		in.MinTickets, _ = flags.GetInt("min-tickets")
	}
	if flags.Changed("active") {
		in.IsActive, _ = flags.GetBool("active")
	}
	for _, bound := range []struct {
		flag string
		dst  *string
	}{{"from", &in.ValidFrom}, {"until", &in.ValidUntil}} {
		if !flags.Changed(bound.flag) {
			continue
		}
		raw, _ := flags.GetString(bound.flag)
		day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), time.Local)
		if err != nil {
			return model.PromoInput{}, errors.Newf("invalid --%s %q, expected YYYY-MM-DD", bound.flag, raw)
		}
		if bound.flag == "until" {
			day = day.Add(24*time.Hour - time.Second)
		}
		*bound.dst = day.Format(time.RFC3339)
	}
	return in, nil
}

const scheduleTimeLayout = "2006-01-02 15:04"

func newAdminSchedulesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage screenings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List screenings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			title, _ := cmd.Flags().GetString("movie")
			studio, _ := cmd.Flags().GetInt("studio")

			ctx, cancel := e.ctx()
			defer cancel()
			page, err := e.client.ListSchedules(ctx, model.ScheduleFilter{
				DateFrom:   strings.TrimSpace(from),
				DateTo:     strings.TrimSpace(to),
				MovieTitle: title,
				StudioId:   studio,
			}, pageParams(cmd))
			if err != nil {
				return err
			}
			if len(page.Data) == 0 {
				fmt.Fprintln(e.out, "No screenings found.")
				return nil
			}
			printSchedules(e, page.Data)
			if page.TotalPage > 1 {
				fmt.Fprintf(e.out, "page %d/%d, %d total\n", page.Page, page.TotalPage, page.Total)
			}
			return nil
		},
	}
	addPageFlags(list)
	list.Flags().String("from", "", "first day, YYYY-MM-DD")
	list.Flags().String("to", "", "last day, YYYY-MM-DD")
	list.Flags().String("movie", "", "movie title contains")
	list.Flags().Int("studio", 0, "studio id")

	addFlags := func(c *cobra.Command) {
		c.Flags().Int("movie", 0, "movie id")
		c.Flags().Int("studio", 0, "studio id")
		c.Flags().String("start", "", "start, \"YYYY-MM-DD HH:MM\" local time")
		c.Flags().String("end", "", "end, \"YYYY-MM-DD HH:MM\" (default start + movie runtime)")
		c.Flags().String("price", "", "ticket price")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a screening",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			in, err := scheduleInput(ctx, e, cmd, model.Schedule{})
			if err != nil {
				return err
			}
			if err := e.client.CreateSchedule(ctx, in); err != nil {
				return err
			}
			_ = store.DropScheduleCache(in.Date)
			fmt.Fprintln(e.out, "Created screening.")
			return nil
		},
	}
	addFlags(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a screening",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			current, err := e.client.GetSchedule(ctx, id)
			if err != nil {
				return err
			}
			in, err := scheduleInput(ctx, e, cmd, current)
			if err != nil {
				return err
			}
			if err := e.client.UpdateSchedule(ctx, id, in); err != nil {
				return err
			}
			_ = store.DropScheduleCache(current.StartTime.Local().Format(time.DateOnly))
			_ = store.DropScheduleCache(in.Date)
			fmt.Fprintf(e.out, "Updated screening #%d.\n", id)
			return nil
		},
	}
	addFlags(update)

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a screening",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.DeleteSchedule(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted screening #%d.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, remove)
	return cmd
}

func scheduleInput(ctx context.Context, e *env, cmd *cobra.Command, current model.Schedule) (model.ScheduleInput, error) {
	flags := cmd.Flags()
	movieID := current.MovieId
	if flags.Changed("movie") {
		movieID, _ = flags.GetInt("movie")
	}
	studioID := current.StudioId
	if flags.Changed("studio") {
		studioID, _ = flags.GetInt("studio")
	}
	if movieID <= 0 || studioID <= 0 {
		return model.ScheduleInput{}, errors.New("--movie and --studio are required")
	}

	start := current.StartTime.Local()
	if flags.Changed("start") {
		raw, _ := flags.GetString("start")
		parsed, err := time.ParseInLocation(scheduleTimeLayout, strings.TrimSpace(raw), time.Local)
		if err != nil {
			return model.ScheduleInput{}, errors.Newf("invalid --start %q, expected \"YYYY-MM-DD HH:MM\"", raw)
		}
		start = parsed
	}
	if start.IsZero() {
		return model.ScheduleInput{}, errors.New("--start is required")
	}

	end := current.EndTime.Local()
	if flags.Changed("end") {
		raw, _ := flags.GetString("end")
		parsed, err := time.ParseInLocation(scheduleTimeLayout, strings.TrimSpace(raw), time.Local)
		if err != nil {
			return model.ScheduleInput{}, errors.Newf("invalid --end %q, expected \"YYYY-MM-DD HH:MM\"", raw)
		}
		end = parsed
	} else if flags.Changed("start") || flags.Changed("movie") || end.IsZero() {
		movie, err := e.client.GetMovie(ctx, movieID)
		if err != nil {
			return model.ScheduleInput{}, errors.Wrap(err, "look up movie runtime")
		}
		end = start.Add(time.Duration(movie.Duration) * time.Minute)
	}
	if !end.After(start) {
		return model.ScheduleInput{}, errors.New("a screening must end after it starts")
	}

	price := current.Price
	if flags.Changed("price") {
		raw, _ := flags.GetString("price")
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || !value.IsPositive() {
			return model.ScheduleInput{}, errors.Newf("invalid --price %q", raw)
		}
		price = value
	}
	if !price.IsPositive() {
		return model.ScheduleInput{}, errors.New("--price is required")
	}

	return model.ScheduleInput{
		MovieId:   movieID,
		StudioId:  studioID,
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
		Date:      start.Format(time.DateOnly),
		Price:     price,
	}, nil
}

func newAdminUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := e.ctx()
			defer cancel()
			page, err := e.client.ListUsers(ctx, pageParams(cmd))
			if err != nil {
				return err
			}
			t := newTable(e.out, table.Row{"ID", "Name", "Email", "Phone", "Role"})
			for _, user := range page.Data {
				t.AppendRow(table.Row{user.Id, user.Name, user.Email, orDash(user.Phone), user.Role})
			}
			renderPage(t, page.Page, page.TotalPage, page.Total)
			return nil
		},
	}
	addPageFlags(list)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var in model.UserInput
			in.Name, _ = flags.GetString("name")
			in.Email, _ = flags.GetString("email")
			in.Phone, _ = flags.GetString("phone")
			if flags.Changed("admin") {
				admin, _ := flags.GetBool("admin")
				in.IsAdmin = &admin
			}
			if in.Email != "" {
				if err := validEmail(in.Email); err != nil {
					return err
				}
			}
			if in == (model.UserInput{}) {
				return errors.New("nothing to change")
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.UpdateUser(ctx, id, in); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Updated user #%d.\n", id)
			return nil
		},
	}
	update.Flags().String("name", "", "display name")
	update.Flags().String("email", "", "email")
	update.Flags().String("phone", "", "phone number")
	update.Flags().Bool("admin", false, "grant or revoke admin rights")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if user, ok := e.sessions.User(); ok && user.Id == id {
				return errors.New("you cannot delete your own account")
			}
			ctx, cancel := e.ctx()
			defer cancel()
			if err := e.client.DeleteUser(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted user #%d.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, update, remove)
	return cmd
}
