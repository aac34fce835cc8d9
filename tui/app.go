package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/config"
	"cinema-ticket-cli/logging"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
)

type appState int

const (
	stateLoadingSchedules appState = iota
	stateSelectMovie
	stateSelectSchedule
	stateLoadingSeats
	stateSeatGrid
	stateLoadingPromos
	stateSelectPromo
	stateCheckout
	stateSubmitting
	stateLogin
	stateLoadingOrders
	stateOrders
	stateOrderDetail
	stateSelectDate
	stateError
)

const sessionExpiredNotice = "Your session has expired. Please log in again."

// Options wires the TUI to its collaborators. Zero values get defaults.
type Options struct {
	Client   *service.Client
	Sessions *store.SessionStore
	Logger   logrus.FieldLogger
	MaxSeats int
}

type appModel struct {
	client   *service.Client
	sessions *store.SessionStore
	log      logrus.FieldLogger
	maxSeats int

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	date               time.Time
	dateReturnState    appState
	dateReturnStateSet bool

	schedules []model.Schedule
	movie     model.Movie
	schedule  model.Schedule

	movieList    list.Model
	scheduleList list.Model
	promoList    list.Model
	orderList    list.Model
	dateList     list.Model

	seats           *booking.Map
	cursor          int
	showSeatNumbers bool

	promo      *model.Promo
	paymentIdx int

	user          model.User
	loggedIn      bool
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocus    int
	loginReturn   appState
	loginBack     appState
	loginErr      string

	ordersBack appState
	order      model.Transaction

	spinner spinner.Model

	errorSuggestNextDay bool
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
	suggestNextDay bool
}

type schedulesMsg struct {
	date      time.Time
	schedules []model.Schedule
	err       error
}

type seatsMsg struct {
	schedule model.Schedule
	booked   []int
	err      error
}

type promosMsg struct {
	promos []model.Promo
	err    error
}

type bookedMsg struct {
	tx  model.Transaction
	err error
}

type loginMsg struct {
	result model.LoginResult
	err    error
}

type logoutMsg struct{}

type ordersMsg struct {
	orders []model.Transaction
	err    error
}

type orderMsg struct {
	order model.Transaction
	err   error
}

type paidMsg struct {
	id  int
	err error
}

func New(opts Options) tea.Model {
	client := opts.Client
	if client == nil {
		client = service.NewClient(nil, config.Default().BaseURL())
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	maxSeats := opts.MaxSeats
	if maxSeats < 1 {
		maxSeats = booking.DefaultMaxSeats
	}

	m := appModel{
		client:   client,
		sessions: opts.Sessions,
		log:      log,
		maxSeats: maxSeats,
		state:    stateLoadingSchedules,
		date:     truncateDate(time.Now()),
	}

	m.movieList = newList("Now Showing")
	m.scheduleList = newList("Schedules")
	m.promoList = newList("Promos")
	m.orderList = newList("My Orders")
	m.dateList = newList("Select Date")

	m.showSeatNumbers = true
	m.emailInput, m.passwordInput = newLoginInputs()

	if m.sessions != nil {
		if user, ok := m.sessions.User(); ok {
			m.user = user
			m.loggedIn = true
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchSchedulesCmd(m.date, false), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateLogin {
			return m.updateLogin(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		if service.IsUnauthorized(msg.err) {
			return m.sessionExpired(recoverStateFrom(m.state))
		}
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.errorSuggestNextDay = msg.suggestNextDay
		m.state = stateError
		return m, nil

	case schedulesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.date = msg.date
		m.schedules = msg.schedules
		if len(m.schedules) == 0 {
			m.movieList.SetItems(nil)
			return m, errWithOptionsCmd(
				fmt.Errorf("no schedules found on %s", m.date.Format(time.DateOnly)),
				stateSelectMovie,
				true,
			)
		}
		recents, _ := store.LoadRecentMovies()
		m.movieList.SetItems(buildMovieItems(m.schedules, recents))
		m.movieList.Select(0)
		m.state = stateSelectMovie
		return m, nil

	case seatsMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectSchedule, false)
		}
		m.schedule = msg.schedule
		capacity := msg.schedule.Studio.SeatCapacity
		if capacity <= 0 {
			capacity = booking.FallbackCapacity
		}
		m.seats = booking.NewMap(capacity, msg.booked, m.maxSeats)
		m.cursor = firstFreeSeat(m.seats)
		m.promo = nil
		m.notice = ""
		m.state = stateSeatGrid
		return m, nil

	case promosMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateCheckout, false)
		}
		if len(msg.promos) == 0 {
			m.notice = "No active promos right now."
			m.state = stateCheckout
			return m, nil
		}
		m.promoList.SetItems(buildPromoItems(msg.promos, m.quote().Subtotal))
		m.promoList.Select(0)
		m.state = stateSelectPromo
		return m, nil

	case bookedMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				return m.sessionExpired(stateCheckout)
			}
			m.notice = service.UserMessage(msg.err, "Booking failed. Please try again.")
			m.state = stateCheckout
			return m, nil
		}
		m.log.WithFields(logrus.Fields{
			"transaction_id": msg.tx.Id,
			"schedule_id":    m.schedule.Id,
			"seats":          m.seats.Selection(),
		}).Info("transaction created")
		if msg.tx.Id == 0 {
			m.seats.Clear()
			m.promo = nil
			m.ordersBack = stateSelectMovie
			m.state = stateLoadingOrders
			return m, tea.Batch(m.fetchOrdersCmd(), m.spinner.Tick)
		}
		m.seats.Clear()
		m.promo = nil
		m.order = msg.tx
		m.orderList.SetItems(nil)
		m.ordersBack = stateSelectMovie
		m.notice = "Booking created. Press p to pay now."
		m.state = stateOrderDetail
		return m, nil

	case loginMsg:
		if msg.err != nil {
			m.loginErr = service.UserMessage(msg.err, "Login failed")
			var apiErr *service.APIError
			if errors.As(msg.err, &apiErr) && apiErr.Message == "" && service.IsUnauthorized(msg.err) {
				m.loginErr = "Invalid email or password."
			}
			m.state = stateLogin
			return m, textinput.Blink
		}
		return m.completeLogin(msg.result)

	case logoutMsg:
		m.loggedIn = false
		m.user = model.User{}
		m.notice = "Logged out."
		return m, nil

	case ordersMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, m.ordersBack, false)
		}
		m.orderList.SetItems(buildOrderItems(msg.orders))
		m.orderList.Select(0)
		m.state = stateOrders
		return m, nil

	case orderMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateOrders, false)
		}
		m.order = msg.order
		m.state = stateOrderDetail
		return m, nil

	case paidMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				return m.sessionExpired(stateOrderDetail)
			}
			m.notice = service.UserMessage(msg.err, "Payment failed. Please try again.")
			m.state = stateOrderDetail
			return m, nil
		}
		m.log.WithField("transaction_id", msg.id).Info("transaction paid")
		m.notice = "Payment received. Enjoy the movie!"
		m.state = stateLoadingOrders
		return m, tea.Batch(m.fetchOrderCmd(msg.id), m.spinner.Tick)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectSchedule:
		m.scheduleList, cmd = m.scheduleList.Update(msg)
	case stateSelectPromo:
		m.promoList, cmd = m.promoList.Update(msg)
	case stateOrders:
		m.orderList, cmd = m.orderList.Update(msg)
	case stateSelectDate:
		m.dateList, cmd = m.dateList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingSchedules, stateLoadingSeats, stateLoadingPromos, stateSubmitting, stateLoadingOrders:
		return header + "\n\n" + m.loadingView()
	case stateSelectMovie:
		return header + "\n\n" + m.movieList.View() + m.noticeView()
	case stateSelectSchedule:
		return header + "\n\n" + m.scheduleList.View()
	case stateSeatGrid:
		return header + "\n\n" + m.renderSeatMap()
	case stateSelectPromo:
		return header + "\n\n" + m.promoList.View()
	case stateCheckout:
		return header + "\n\n" + m.checkoutView()
	case stateLogin:
		return header + "\n\n" + m.loginView()
	case stateOrders:
		return header + "\n\n" + m.orderList.View()
	case stateOrderDetail:
		return header + "\n\n" + m.orderDetailView()
	case stateSelectDate:
		return header + "\n\n" + m.dateList.View()
	case stateError:
		if m.errorSuggestNextDay {
			return header + "\n\n" + m.errorRecoveryView()
		}
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(service.UserMessage(m.err, m.err.Error())) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Cinema Tickets")
	sub := []string{}
	if m.loggedIn {
		sub = append(sub, fmt.Sprintf("Signed in: %s", m.user.Name))
	} else {
		sub = append(sub, "Not signed in")
	}
	if !m.date.IsZero() && (m.state == stateSelectMovie || m.state == stateSelectSchedule || m.state == stateSelectDate) {
		sub = append(sub, fmt.Sprintf("Date: %s", m.date.Format(time.DateOnly)))
	}
	if m.movie.Title != "" && (m.state == stateSelectSchedule || m.state == stateSeatGrid || m.state == stateCheckout || m.state == stateSelectPromo) {
		sub = append(sub, fmt.Sprintf("Movie: %s", m.movie.Title))
	}
	if m.schedule.Id != 0 && (m.state == stateSeatGrid || m.state == stateCheckout || m.state == stateSelectPromo) {
		sub = append(sub, fmt.Sprintf("Show: %s %s", m.schedule.Studio.Name, m.schedule.StartTime.Local().Format("Mon 02/01 15:04")))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}
	hints := "ctrl+c quit • esc back • type to filter • ctrl+d pick date • ctrl+o orders • ctrl+l " + m.sessionKeyLabel()
	switch m.state {
	case stateSelectMovie, stateSelectSchedule:
		hints = "ctrl+c quit • esc back • type to filter • enter select • ctrl+d pick date • ctrl+r reload • ctrl+o orders • ctrl+l " + m.sessionKeyLabel()
	case stateSeatGrid:
		hints = "ctrl+c quit • esc back • arrows/hjkl move • space toggle • c clear • n toggle labels • enter checkout"
	case stateCheckout:
		hints = "ctrl+c quit • esc back • p promos • r remove promo • tab payment method • enter confirm"
	case stateSelectPromo:
		hints = "ctrl+c quit • esc back • type to filter • enter apply"
	case stateLogin:
		hints = "ctrl+c quit • esc cancel • tab next field • enter submit"
	case stateOrders:
		hints = "ctrl+c quit • esc back • type to filter • enter details"
	case stateOrderDetail:
		hints = "ctrl+c quit • esc back"
		if m.order.PaymentStatus == model.PaymentPending {
			hints += " • p pay now • tab payment method"
		}
	case stateSelectDate:
		hints = "ctrl+c quit • esc back • enter select date"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) sessionKeyLabel() string {
	if m.loggedIn {
		return "log out"
	}
	return "log in"
}

func (m appModel) noticeView() string {
	if m.notice == "" {
		return ""
	}
	return "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+o":
		if !m.isLoadingState() {
			return m.openOrders()
		}
	case "ctrl+l":
		if m.state == stateSelectMovie || m.state == stateSelectSchedule || m.state == stateOrders {
			if m.loggedIn {
				return m, m.logoutCmd(), true
			}
			m.openLogin(m.state, m.state, "")
			return m, textinput.Blink, true
		}
	case "ctrl+r":
		if m.state == stateSelectMovie || m.state == stateSelectSchedule {
			m.state = stateLoadingSchedules
			return m, tea.Batch(m.fetchSchedulesCmd(m.date, true), m.spinner.Tick), true
		}
	}

	if msg.String() == "ctrl+d" && (m.state == stateSelectMovie || m.state == stateSelectSchedule) {
		m.openDatePicker(m.state)
		return m, nil, true
	}
	if msg.String() == "ctrl+d" && m.state == stateError && m.errorSuggestNextDay {
		m.openDatePicker(stateSelectMovie)
		return m, nil, true
	}

	switch m.state {
	case stateSeatGrid:
		return m.handleSeatKey(msg)
	case stateCheckout:
		return m.handleCheckoutKey(msg)
	case stateOrderDetail:
		return m.handleOrderDetailKey(msg)
	}

	if msg.Type == tea.KeyEnter {
		if m.state == stateError && m.errorSuggestNextDay {
			return m.advanceToNextDayFromError()
		}
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.movie = item.movie
			m.notice = ""
			_ = store.RememberMovie(m.movie)
			m.scheduleList.Title = fmt.Sprintf("Schedules • %s", item.movie.Title)
			m.scheduleList.SetItems(buildScheduleItems(item.schedules))
			m.scheduleList.Select(0)
			m.state = stateSelectSchedule
			return m, nil, true
		case stateSelectSchedule:
			item, ok := m.scheduleList.SelectedItem().(scheduleItem)
			if !ok {
				return m, nil, true
			}
			m.state = stateLoadingSeats
			return m, tea.Batch(m.fetchSeatsCmd(item.schedule), m.spinner.Tick), true
		case stateSelectPromo:
			item, ok := m.promoList.SelectedItem().(promoItem)
			if !ok {
				return m, nil, true
			}
			promo := item.promo
			m.promo = &promo
			m.notice = ""
			m.state = stateCheckout
			return m, nil, true
		case stateOrders:
			item, ok := m.orderList.SelectedItem().(orderItem)
			if !ok {
				return m, nil, true
			}
			m.notice = ""
			m.state = stateLoadingOrders
			return m, tea.Batch(m.fetchOrderCmd(item.order.Id), m.spinner.Tick), true
		case stateSelectDate:
			item, ok := m.dateList.SelectedItem().(dateItem)
			if !ok {
				return m, nil, true
			}
			m.dateReturnStateSet = false
			m.state = stateLoadingSchedules
			return m, tea.Batch(m.fetchSchedulesCmd(item.date, false), m.spinner.Tick), true
		}
	}
	return m, nil, false
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateSelectSchedule:
		m.state = stateSelectMovie
	case stateSeatGrid:
		m.leaveBooking()
		m.state = stateSelectSchedule
	case stateCheckout:
		m.notice = ""
		m.state = stateSeatGrid
	case stateSelectPromo:
		m.state = stateCheckout
	case stateOrders:
		m.state = m.ordersBack
	case stateOrderDetail:
		m.notice = ""
		if len(m.orderList.Items()) > 0 {
			m.state = stateOrders
		} else {
			m.state = m.ordersBack
		}
	case stateSelectDate:
		if m.dateReturnStateSet {
			m.state = m.dateReturnState
			m.dateReturnStateSet = false
		} else {
			m.state = stateSelectMovie
		}
	case stateError:
		m.state = m.lastState
		m.errorSuggestNextDay = false
	default:
		return m, nil
	}
	return m, nil
}

// leaveBooking drops the seat selection when the user backs out of a show.
func (m *appModel) leaveBooking() {
	if m.seats != nil {
		m.seats.Clear()
	}
	m.seats = nil
	m.promo = nil
	m.notice = ""
}

func (m appModel) openOrders() (appModel, tea.Cmd, bool) {
	if m.state != stateOrders && m.state != stateOrderDetail && m.state != stateLogin {
		m.ordersBack = m.state
		if m.state == stateError {
			m.ordersBack = m.lastState
		}
	}
	if !m.loggedIn {
		m.openLogin(stateOrders, m.ordersBack, "Log in to see your orders.")
		return m, textinput.Blink, true
	}
	m.notice = ""
	m.state = stateLoadingOrders
	return m, tea.Batch(m.fetchOrdersCmd(), m.spinner.Tick), true
}

func (m appModel) advanceToNextDayFromError() (appModel, tea.Cmd, bool) {
	next := truncateDate(m.date.AddDate(0, 0, 1))
	m.errorSuggestNextDay = false
	m.state = stateLoadingSchedules
	return m, tea.Batch(m.fetchSchedulesCmd(next, false), m.spinner.Tick), true
}

func (m *appModel) openDatePicker(returnState appState) {
	m.dateReturnState = returnState
	m.dateReturnStateSet = true
	m.state = stateSelectDate
	m.dateList.SetItems(buildDateItems(time.Now()))
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithOptionsCmd(err error, returnState appState, suggestNextDay bool) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
			suggestNextDay: suggestNextDay,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingSchedules:
		return stateSelectMovie
	case stateLoadingSeats:
		return stateSelectSchedule
	case stateLoadingPromos, stateSubmitting:
		return stateCheckout
	case stateLoadingOrders:
		return stateOrders
	case stateError:
		return stateSelectMovie
	default:
		return state
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (m appModel) fetchSchedulesCmd(date time.Time, force bool) tea.Cmd {
	return func() tea.Msg {
		dateKey := date.Format(time.DateOnly)
		if force {
			_ = store.DropScheduleCache(dateKey)
		} else if cached, fresh, err := store.LoadScheduleCache(dateKey); err == nil && fresh && len(cached) > 0 {
			return schedulesMsg{date: date, schedules: cached}
		}
		ctx := context.Background()
		schedules, err := m.client.SchedulesOn(ctx, dateKey)
		if err == nil && len(schedules) > 0 {
			_ = store.SaveScheduleCache(dateKey, schedules)
		}
		return schedulesMsg{date: date, schedules: schedules, err: err}
	}
}

// fetchSeatsCmd loads the schedule record (for the studio capacity) and the
// booked seats side by side. Seat state is never served from cache.
func (m appModel) fetchSeatsCmd(schedule model.Schedule) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var (
			g         errgroup.Group
			detail    model.Schedule
			detailErr error
			booked    []int
		)
		// A missing detail record is survivable; missing booked seats is not.
		g.Go(func() error {
			detail, detailErr = m.client.GetSchedule(ctx, schedule.Id)
			return nil
		})
		g.Go(func() error {
			var err error
			booked, err = m.client.BookedSeats(ctx, schedule.Id)
			return err
		})
		if err := g.Wait(); err != nil {
			return seatsMsg{err: errors.Wrap(err, "load booked seats")}
		}
		if detailErr != nil {
			if service.IsUnauthorized(detailErr) {
				return seatsMsg{err: detailErr}
			}
			m.log.WithError(detailErr).WithField("schedule_id", schedule.Id).Warn("schedule detail unavailable, using list record")
			detail = schedule
		}
		if detail.Movie.Title == "" {
			detail.Movie = schedule.Movie
		}
		return seatsMsg{schedule: detail, booked: booked}
	}
}

func (m appModel) fetchOrdersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		page, err := m.client.MyTransactions(ctx, "", model.ListParams{Page: 1, PerPage: 50})
		if err != nil {
			return ordersMsg{err: err}
		}
		orders := page.Data
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		})
		return ordersMsg{orders: orders}
	}
}

func (m appModel) fetchOrderCmd(id int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		order, err := m.client.GetTransaction(ctx, id)
		return orderMsg{order: order, err: err}
	}
}

func (m appModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.client.Logout(context.Background())
		if m.sessions != nil {
			_ = m.sessions.Clear()
		}
		return logoutMsg{}
	}
}
