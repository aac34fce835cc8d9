package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/config"
	"cinema-ticket-cli/logging"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/service"
	"cinema-ticket-cli/store"
)

func newTestEnv(t *testing.T, handler http.HandlerFunc) (*env, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.APIURL = server.URL
	sessions := store.NewSessionStore(filepath.Join(dir, "session.json"))
	client := service.NewClient(server.Client(), cfg.BaseURL())
	client.SetSession(sessions)

	out := &bytes.Buffer{}
	return &env{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		log:      logging.Discard(),
		out:      out,
		ready:    true,
	}, out
}

func run(e *env, args ...string) error {
	root := newRootCmd(e, "1.2.3", "abc123")
	root.SetArgs(args)
	root.SetErr(io.Discard)
	return root.Execute()
}

func logIn(t *testing.T, e *env, role string) {
	t.Helper()
	require.NoError(t, e.sessions.Save(store.Session{
		Token: "opaque-token",
		User:  model.User{Id: 3, Name: "Ayu", Email: "ayu@example.com", Role: role},
	}))
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status_code": status,
		"message":     message,
		"data":        data,
	})
}

func scheduleJSON(id int, title string, capacity int, start time.Time) map[string]any {
	return map[string]any{
		"id":         id,
		"movie_id":   1,
		"studio_id":  2,
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(2 * time.Hour).Format(time.RFC3339),
		"price":      "45000",
		"movie":      map[string]any{"id": 1, "title": title, "duration": 120},
		"studio":     map[string]any{"id": 2, "name": "Studio 2", "seat_capacity": capacity},
	}
}

func TestVersion(t *testing.T) {
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})
	require.NoError(t, run(e, "version"))
	assert.Equal(t, "cinema-ticket-cli 1.2.3 (abc123)\n", out.String())
}

func TestLogin_SavesSession(t *testing.T) {
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"token": "fresh-token",
			"user":  map[string]any{"id": 3, "name": "Ayu", "email": "ayu@example.com", "role": "user"},
		})
	})

	require.NoError(t, run(e, "login", "--email", "ayu@example.com", "--password", "secret"))
	assert.Contains(t, out.String(), "Logged in as Ayu")
	assert.Equal(t, "fresh-token", e.sessions.Token())
}

func TestLogin_RejectedCredentialsAreNotASessionExpiry(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := run(e, "login", "--email", "ayu@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.False(t, service.IsUnauthorized(err))
	assert.Equal(t, "invalid email or password", failureText(err))
}

func TestBook_RequiresLogin(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	err := run(e, "book", "7", "--seats", "A1", "--method", "e_wallet", "--yes")
	require.Error(t, err)
	assert.True(t, service.IsUnauthorized(err))
	assert.Contains(t, failureText(err), "cinema login")
}

func TestBook_CreatesTransaction(t *testing.T) {
	start := time.Now().Add(48 * time.Hour)
	var posted model.TransactionInput
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/schedules/7":
			writeEnvelope(w, http.StatusOK, "ok", scheduleJSON(7, "Dune", 25, start))
		case r.Method == http.MethodGet && r.URL.Path == "/api/tickets/by-schedule/7":
			writeEnvelope(w, http.StatusOK, "ok", []map[string]any{
				{"id": 1, "seat_number": 1, "status": "active"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/promos":
			writeEnvelope(w, http.StatusOK, "ok", map[string]any{
				"data": []map[string]any{{
					"id": 4, "code": "HEMAT10", "name": "Hemat",
					"discount_type": "percentage", "discount_value": "10", "is_active": true,
				}},
				"page": 1, "per_page": 50, "total": 1, "total_page": 1,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/transactions":
			assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			writeEnvelope(w, http.StatusCreated, "created", map[string]any{
				"id": 99, "total_amount": "81000", "payment_status": "pending",
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	logIn(t, e, model.RoleUser)

	require.NoError(t, run(e, "book", "7", "--seats", "a2,B2", "--promo", "hemat10", "--method", "E-Wallet", "--yes"))

	assert.Equal(t, 7, posted.ScheduleId)
	assert.Equal(t, []int{2, 7}, posted.SeatNumbers)
	assert.Equal(t, model.PaymentEWallet, posted.PaymentMethod)
	assert.Equal(t, "HEMAT10", posted.PromoCode)

	text := out.String()
	assert.Contains(t, text, "Rp 90,000")
	assert.Contains(t, text, "-Rp 9,000")
	assert.Contains(t, text, "Booking #99 created, Rp 81,000 due.")
	assert.Contains(t, text, "cinema pay 99")
}

func TestBook_RefusesBookedSeat(t *testing.T) {
	var posts int32
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/schedules/7":
			writeEnvelope(w, http.StatusOK, "ok", scheduleJSON(7, "Dune", 25, time.Now()))
		case "/api/tickets/by-schedule/7":
			writeEnvelope(w, http.StatusOK, "ok", []map[string]any{{"seat_number": 1, "status": "active"}})
		default:
			atomic.AddInt32(&posts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	logIn(t, e, model.RoleUser)

	err := run(e, "book", "7", "--seats", "A1", "--method", "credit_card", "--yes")
	require.Error(t, err)
	assert.Equal(t, "seat A1 is already booked", failureText(err))
	assert.Zero(t, atomic.LoadInt32(&posts))
}

func TestSelectSeats(t *testing.T) {
	seats := booking.NewMap(25, []int{3}, 2)

	require.NoError(t, selectSeats(seats, "A1, a1 ,2"))
	assert.Equal(t, []int{1, 2}, seats.Selection())

	seats.Clear()
	err := selectSeats(seats, "A1,A2,A4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 2 seats")

	seats.Clear()
	assert.Error(t, selectSeats(seats, "Z9"))
	assert.Error(t, selectSeats(seats, " , "))
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"credit_card": model.PaymentCreditCard,
		"Credit Card": model.PaymentCreditCard,
		"cc":          model.PaymentCreditCard,
		"E_WALLET":    model.PaymentEWallet,
		"wallet":      model.PaymentEWallet,
	}
	for raw, want := range cases {
		got, err := normalizePaymentMethod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := normalizePaymentMethod("cash")
	assert.Error(t, err)
}

func TestSchedules_GroupsByMovieAndUsesCache(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	var hits int32
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		require.Equal(t, "/api/schedules", r.URL.Path)
		assert.Equal(t, "2026-03-14", r.URL.Query().Get("date_from"))
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data": []map[string]any{
				scheduleJSON(2, "Dune", 40, day.Add(21*time.Hour)),
				scheduleJSON(1, "Arrival", 40, day.Add(13*time.Hour)),
				scheduleJSON(3, "Dune", 40, day.Add(15*time.Hour)),
			},
			"page": 1, "per_page": 100, "total": 3, "total_page": 1,
		})
	})

	require.NoError(t, run(e, "schedules", "--date", "2026-03-14"))
	text := out.String()
	assert.Less(t, strings.Index(text, "Arrival"), strings.Index(text, "Dune"))
	assert.Less(t, strings.Index(text, "15:00"), strings.Index(text, "21:00"))

	out.Reset()
	require.NoError(t, run(e, "schedules", "--date", "2026-03-14", "--movie", "dun"))
	assert.NotContains(t, out.String(), "Arrival")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	require.NoError(t, run(e, "schedules", "--date", "2026-03-14", "--refresh"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSeats_RendersGrid(t *testing.T) {
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/schedules/5":
			writeEnvelope(w, http.StatusOK, "ok", scheduleJSON(5, "Dune", 12, time.Now()))
		case "/api/tickets/by-schedule/5":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Fatalf("unexpected request %s", r.URL.Path)
		}
	})

	require.NoError(t, run(e, "seats", "5"))
	text := out.String()
	assert.Contains(t, text, "SCREEN")
	assert.Contains(t, text, "C2")
	assert.Contains(t, text, "12 of 12 seats free")
}

func TestPay_OnlyPending(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{"id": 8, "payment_status": "success"})
	})
	logIn(t, e, model.RoleUser)

	err := run(e, "pay", "8", "--method", "credit_card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only pending bookings")
}

func TestPay_UsesStoredMethod(t *testing.T) {
	var paid int32
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/transactions/8":
			writeEnvelope(w, http.StatusOK, "ok", map[string]any{"id": 8, "payment_status": "pending", "payment_method": "e_wallet"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/transactions/8/payment":
			atomic.AddInt32(&paid, 1)
			var body model.PaymentInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Paid via E-Wallet", body.PaymentNote)
			writeEnvelope(w, http.StatusOK, "ok", nil)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	logIn(t, e, model.RoleUser)

	require.NoError(t, run(e, "pay", "8"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&paid))
	assert.Contains(t, out.String(), "Booking #8 paid via E-Wallet.")
}

func TestAdmin_RejectsNonAdmin(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})
	logIn(t, e, model.RoleUser)

	err := run(e, "admin", "genres", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin account")
}

func TestAdminPromosAdd_Payload(t *testing.T) {
	var posted map[string]any
	e, out := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/promos", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		writeEnvelope(w, http.StatusCreated, "created", nil)
	})
	logIn(t, e, model.RoleAdmin)

	require.NoError(t, run(e, "admin", "promos", "add",
		"--code", "weekend", "--value", "15", "--max-discount", "20000", "--min-tickets", "2", "--until", "2026-12-31"))

	assert.Equal(t, "WEEKEND", posted["code"])
	assert.Equal(t, "WEEKEND", posted["name"])
	assert.Equal(t, "percentage", posted["discount_type"])
	assert.EqualValues(t, 15, posted["discount_value"])
	assert.EqualValues(t, 20000, posted["max_discount"])
	assert.EqualValues(t, 2, posted["min_tickets"])
	assert.Equal(t, true, posted["is_active"])
	assert.True(t, strings.HasPrefix(posted["valid_until"].(string), "2026-12-31T23:59:59"))
	assert.Contains(t, out.String(), "Created promo WEEKEND.")
}

func TestAdminPromosAdd_RejectsPercentOver100(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})
	logIn(t, e, model.RoleAdmin)

	err := run(e, "admin", "promos", "add", "--code", "X", "--value", "150")
	require.Error(t, err)
}

func TestAdminGenres_ResolveNamesFromCache(t *testing.T) {
	var listed int32
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/genres", r.URL.Path)
		atomic.AddInt32(&listed, 1)
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data":       []map[string]any{{"id": 1, "name": "Action"}, {"id": 2, "name": "Drama"}},
			"page":       1,
			"total_page": 1,
		})
	})

	ids, err := resolveGenres(t.Context(), e, "drama, 9")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 9}, ids)

	ids, err = resolveGenres(t.Context(), e, "ACTION")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
	assert.Equal(t, int32(1), atomic.LoadInt32(&listed))

	_, err = resolveGenres(t.Context(), e, "Horror")
	assert.Error(t, err)
}

func TestAdminSchedulesAdd_DefaultsEndToRuntime(t *testing.T) {
	var posted model.ScheduleInput
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/movies/1":
			writeEnvelope(w, http.StatusOK, "ok", map[string]any{"id": 1, "title": "Dune", "duration": 155})
		case r.Method == http.MethodPost && r.URL.Path == "/api/schedules":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			writeEnvelope(w, http.StatusCreated, "created", nil)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	logIn(t, e, model.RoleAdmin)

	require.NoError(t, run(e, "admin", "schedules", "add",
		"--movie", "1", "--studio", "2", "--start", "2026-03-14 19:00", "--price", "50000"))

	start, err := time.Parse(time.RFC3339, posted.StartTime)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, posted.EndTime)
	require.NoError(t, err)
	assert.Equal(t, 155*time.Minute, end.Sub(start))
	assert.Equal(t, "2026-03-14", posted.Date)
	assert.Equal(t, "50000", posted.Price.String())
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "Aborted.", failureText(errAborted))
	assert.Contains(t, failureText(service.ErrUnauthorized), "cinema login")
}

func TestBook_WithoutTerminalNeedsFlags(t *testing.T) {
	e, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/schedules/7":
			writeEnvelope(w, http.StatusOK, "ok", scheduleJSON(7, "Dune", 25, time.Now()))
		case "/api/tickets/by-schedule/7":
			writeEnvelope(w, http.StatusOK, "ok", []map[string]any{})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	logIn(t, e, model.RoleUser)
	isTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = isTerminal })

	err := run(e, "book", "7", "--seats", "A1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --method")

	err = run(e, "book", "7", "--seats", "A1", "--method", "cc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --yes")
}
