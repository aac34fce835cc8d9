package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"cinema-ticket-cli/model"
	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func newTestModel(t *testing.T) appModel {
	t.Helper()
	setTestConfigDir(t)
	return New(Options{MaxSeats: 2}).(appModel)
}

func newFilterModel(items []list.Item) *appModel {
	model := New(Options{}).(appModel)
	model.state = stateSelectMovie
	model.movieList = newList("Now Showing")
	model.movieList.SetItems(items)
	return &model
}

func update(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out
}

func testSchedule(id int, movieID int, title string, start time.Time) model.Schedule {
	return model.Schedule{
		Id:        id,
		MovieId:   movieID,
		StartTime: start,
		Price:     decimal.NewFromInt(75000),
		Movie:     model.Movie{Id: movieID, Title: title},
		Studio:    model.Studio{Id: 1, Name: "Studio 1", SeatCapacity: 25},
	}
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Dune"},
		testItem{value: "Oppenheimer"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "d" {
		t.Fatalf("expected filter value to be %q, got %q", "d", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "du" {
		t.Fatalf("expected filter value to be %q, got %q", "du", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Dune"},
		testItem{value: "Oppenheimer"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.movieList.FilterValue(); got != "d" {
		t.Fatalf("expected filter value to be %q, got %q", "d", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Inside Out"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("in")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.movieList.FilterValue(); got != "in " {
		t.Fatalf("expected filter value to be %q, got %q", "in ", got)
	}
}

func TestHandleFilterInput_IgnoredOnSeatGrid(t *testing.T) {
	m := newTestModel(t)
	m.state = stateSeatGrid
	if m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")}) {
		t.Fatal("expected seat grid keys to bypass list filtering")
	}
}

func TestSchedulesMsg_GroupsByMovie(t *testing.T) {
	m := newTestModel(t)
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.Local)
	m = update(t, m, schedulesMsg{date: day, schedules: []model.Schedule{
		testSchedule(1, 10, "Oppenheimer", day.Add(19*time.Hour)),
		testSchedule(2, 20, "Dune", day.Add(13*time.Hour)),
		testSchedule(3, 20, "Dune", day.Add(16*time.Hour)),
	}})

	if m.state != stateSelectMovie {
		t.Fatalf("expected movie list, got state %d", m.state)
	}
	items := m.movieList.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(items))
	}
	first := items[0].(movieItem)
	if first.movie.Title != "Dune" || len(first.schedules) != 2 {
		t.Fatalf("unexpected first movie: %+v", first)
	}
}

func TestSchedulesMsg_EmptyDaySuggestsNextDay(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(schedulesMsg{date: time.Now()})
	if cmd == nil {
		t.Fatal("expected an error command")
	}
	m = update(t, next.(appModel), cmd())
	if m.state != stateError || !m.errorSuggestNextDay {
		t.Fatalf("expected next-day recovery, got state %d", m.state)
	}
}

func TestBuildMovieItems_RecentFirst(t *testing.T) {
	day := time.Now()
	items := buildMovieItems([]model.Schedule{
		testSchedule(1, 10, "Alpha", day),
		testSchedule(2, 20, "Beta", day),
		testSchedule(3, 30, "Gamma", day),
	}, []store.RecentMovie{{ID: 30, Title: "Gamma"}})

	got := []string{}
	for _, item := range items {
		got = append(got, item.(movieItem).movie.Title)
	}
	if strings.Join(got, ",") != "Gamma,Alpha,Beta" {
		t.Fatalf("unexpected order: %v", got)
	}
	if !items[0].(movieItem).recent {
		t.Fatal("expected recent flag on first item")
	}
}

func openSeatGrid(t *testing.T, booked []int) appModel {
	t.Helper()
	m := newTestModel(t)
	m.state = stateLoadingSeats
	m.movie = model.Movie{Id: 10, Title: "Dune"}
	return update(t, m, seatsMsg{schedule: testSchedule(7, 10, "Dune", time.Now()), booked: booked})
}

func TestSeatGrid_ToggleSkipsBookedAndEnforcesLimit(t *testing.T) {
	m := openSeatGrid(t, []int{2})
	if m.state != stateSeatGrid || m.cursor != 1 {
		t.Fatalf("unexpected seat grid state %d cursor %d", m.state, m.cursor)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !strings.Contains(m.notice, "already booked") {
		t.Fatalf("expected booked notice, got %q", m.notice)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !strings.Contains(m.notice, "Limit reached") {
		t.Fatalf("expected limit notice, got %q", m.notice)
	}
	if got := m.seats.SelectionLabels(); strings.Join(got, ",") != "A1,A3" {
		t.Fatalf("unexpected selection: %v", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if got := m.seats.Selection(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected deselect to succeed, got %v", got)
	}
}

func TestSeatGrid_CursorStaysOnGrid(t *testing.T) {
	m := openSeatGrid(t, nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 1 {
		t.Fatalf("expected cursor to stay on seat 1, got %d", m.cursor)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 6 {
		t.Fatalf("expected cursor on seat 6, got %d", m.cursor)
	}
	for i := 0; i < 10; i++ {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 21 {
		t.Fatalf("expected cursor on last row, got %d", m.cursor)
	}
}

func TestSeatGrid_EnterNeedsSelection(t *testing.T) {
	m := openSeatGrid(t, nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateSeatGrid || m.notice == "" {
		t.Fatalf("expected to stay on seat grid with a notice, got state %d", m.state)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateCheckout {
		t.Fatalf("expected checkout, got state %d", m.state)
	}
}

func TestSeatGrid_EscClearsSelection(t *testing.T) {
	m := openSeatGrid(t, nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateSelectSchedule || m.seats != nil {
		t.Fatalf("expected schedule list with no seat map, got state %d", m.state)
	}
}

func TestCheckout_QuoteAndPaymentMethod(t *testing.T) {
	m := openSeatGrid(t, nil)
	m.maxSeats = 5
	m.seats = nil
	m = update(t, m, seatsMsg{schedule: testSchedule(7, 10, "Dune", time.Now())})
	for i := 0; i < 3; i++ {
		m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	maxDiscount := decimal.NewFromInt(50000)
	m.promo = &model.Promo{Code: "HEMAT10", DiscountType: model.PromoPercentage, DiscountValue: decimal.NewFromInt(10), MaxDiscount: &maxDiscount}
	q := m.quote()
	if !q.Total.Equal(decimal.NewFromInt(202500)) || !q.Discount.Equal(decimal.NewFromInt(22500)) {
		t.Fatalf("unexpected quote: %+v", q)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.paymentMethod() != model.PaymentEWallet {
		t.Fatalf("expected e-wallet, got %s", m.paymentMethod())
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.promo != nil {
		t.Fatal("expected promo to be removed")
	}
	if !strings.Contains(m.checkoutView(), "Rp 225,000") {
		t.Fatalf("expected subtotal in view:\n%s", m.checkoutView())
	}
}

func TestCheckout_ConfirmWithoutSessionOpensLogin(t *testing.T) {
	m := openSeatGrid(t, nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.state != stateLogin || m.loginReturn != stateCheckout {
		t.Fatalf("expected login returning to checkout, got state %d return %d", m.state, m.loginReturn)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateCheckout || len(m.seats.Selection()) != 1 {
		t.Fatalf("expected checkout with selection kept, got state %d", m.state)
	}
}

func TestUnauthorized_RoutesToLogin(t *testing.T) {
	m := newTestModel(t)
	m.loggedIn = true
	m.user = model.User{Name: "Ayu", Email: "ayu@example.com"}
	m.state = stateLoadingOrders

	unauthorized := errors.Mark(errors.New("401"), service.ErrUnauthorized)
	m = update(t, m, errMsg{err: unauthorized})

	if m.state != stateLogin {
		t.Fatalf("expected login, got state %d", m.state)
	}
	if m.loggedIn || m.notice != sessionExpiredNotice {
		t.Fatalf("expected expired session, got loggedIn=%v notice=%q", m.loggedIn, m.notice)
	}
	if m.loginReturn != stateOrders {
		t.Fatalf("expected to resume orders after login, got %d", m.loginReturn)
	}
	if m.emailInput.Value() != "ayu@example.com" {
		t.Fatalf("expected email prefilled, got %q", m.emailInput.Value())
	}
}

func TestLogin_RequiresBothFields(t *testing.T) {
	m := newTestModel(t)
	m.openLogin(stateSelectMovie, stateSelectMovie, "")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.loginFocus != 1 {
		t.Fatalf("expected focus on password, got %d", m.loginFocus)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateLogin || m.loginErr == "" {
		t.Fatalf("expected validation error, got state %d err %q", m.state, m.loginErr)
	}
}

func TestLoginMsg_StoresSessionAndResumes(t *testing.T) {
	setTestConfigDir(t)
	sessions, err := store.DefaultSessionStore()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	m := New(Options{Sessions: sessions}).(appModel)
	m.openLogin(stateCheckout, stateCheckout, "")
	m.state = stateSubmitting

	m = update(t, m, loginMsg{result: model.LoginResult{Token: "opaque", User: model.User{Id: 1, Name: "Ayu"}}})
	if m.state != stateCheckout || !m.loggedIn {
		t.Fatalf("expected checkout after login, got state %d", m.state)
	}
	if sessions.Token() != "opaque" {
		t.Fatalf("expected token to be stored, got %q", sessions.Token())
	}
}

func TestBookedMsg_ClearsSelectionAndShowsOrder(t *testing.T) {
	m := openSeatGrid(t, nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m.state = stateSubmitting

	m = update(t, m, bookedMsg{tx: model.Transaction{Id: 99, PaymentStatus: model.PaymentPending}})
	if m.state != stateOrderDetail || m.order.Id != 99 {
		t.Fatalf("expected order detail, got state %d", m.state)
	}
	if len(m.seats.Selection()) != 0 {
		t.Fatalf("expected selection cleared, got %v", m.seats.Selection())
	}
	if !strings.Contains(m.orderDetailView(), "PENDING") {
		t.Fatalf("expected pending badge:\n%s", m.orderDetailView())
	}
}

func TestBookedMsg_ErrorStaysOnCheckout(t *testing.T) {
	m := openSeatGrid(t, nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m.state = stateSubmitting

	m = update(t, m, bookedMsg{err: &service.APIError{StatusCode: 400, Message: "seat already booked"}})
	if m.state != stateCheckout || m.notice != "seat already booked" {
		t.Fatalf("expected inline error on checkout, got state %d notice %q", m.state, m.notice)
	}
	if len(m.seats.Selection()) != 1 {
		t.Fatal("expected selection to survive a failed booking")
	}
}
