package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cinema-ticket-cli/model"
)

func TestLogin_OK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ayu@example.com" || body["password"] != "secret" {
			t.Fatalf("unexpected body: %+v", body)
		}
		writeEnvelope(w, http.StatusOK, "login success", map[string]any{
			"token": "jwt-token",
			"user":  map[string]any{"id": 1, "name": "Ayu", "email": "ayu@example.com", "IsAdmin": false, "avatar_url": "/uploads/a.png"},
		})
	})

	result, err := client.Login(context.Background(), " ayu@example.com ", "secret")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Token != "jwt-token" || result.User.Role != model.RoleUser || result.User.Avatar != "/uploads/a.png" {
		t.Fatalf("unexpected login result: %+v", result)
	}
}

func TestLogin_MissingTokenIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{"user": map[string]any{"id": 1}})
	})

	if _, err := client.Login(context.Background(), "a@b.c", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogout_IgnoresServerErrorAndClearsSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	session := &fakeSession{token: "abc"}
	client.SetSession(session)

	client.Logout(context.Background())
	if session.token != "" || session.cleared == 0 {
		t.Fatalf("expected cleared session, got %+v", session)
	}
}

func TestListSchedules_SendsFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/schedules" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("date_from") != "2026-10-15" || query.Get("date_to") != "2026-10-16" {
			t.Fatalf("unexpected dates: %s", r.URL.RawQuery)
		}
		if query.Get("movie_title") != "Dune" || query.Get("studio_id") != "2" || query.Get("per_page") != "10" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data":       []map[string]any{{"id": 5, "price": 75000, "studio": map[string]any{"seat_capacity": 64}}},
			"page":       1,
			"per_page":   10,
			"total":      1,
			"total_page": 1,
		})
	})

	page, err := client.ListSchedules(context.Background(), model.ScheduleFilter{
		DateFrom:   "2026-10-15",
		DateTo:     "2026-10-16",
		MovieTitle: " Dune ",
		StudioId:   2,
	}, model.ListParams{PerPage: 10})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(page.Data) != 1 || page.Total != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if !page.Data[0].Price.Equal(decimal.NewFromInt(75000)) || page.Data[0].Studio.SeatCapacity != 64 {
		t.Fatalf("unexpected schedule: %+v", page.Data[0])
	}
}

func TestSchedulesOn_WalksPages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		id := 1
		if page == "2" {
			id = 2
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data":       []map[string]any{{"id": id}},
			"page":       id,
			"total_page": 2,
		})
	})

	schedules, err := client.SchedulesOn(context.Background(), "2026-10-15")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(schedules) != 2 || schedules[1].Id != 2 {
		t.Fatalf("unexpected schedules: %+v", schedules)
	}
}

func TestBookedSeats_SkipsReleasedTickets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tickets/by-schedule/7" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, "ok", []map[string]any{
			{"seat_number": 3, "status": "paid"},
			{"seat_number": 4, "status": "pending"},
			{"seat_number": 5, "status": "cancelled"},
		})
	})

	seats, err := client.BookedSeats(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(seats) != 2 || seats[0] != 3 || seats[1] != 4 {
		t.Fatalf("unexpected seats: %+v", seats)
	}
}

func TestBookedSeats_PaginatedAndMissingEndpoint(t *testing.T) {
	paged := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data": []map[string]any{{"seat_number": 9, "status": "paid"}},
		})
	})
	seats, err := paged.BookedSeats(context.Background(), 1)
	if err != nil || len(seats) != 1 || seats[0] != 9 {
		t.Fatalf("unexpected result: %+v %v", seats, err)
	}

	missing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	seats, err = missing.BookedSeats(context.Background(), 1)
	if err != nil || len(seats) != 0 {
		t.Fatalf("unexpected result: %+v %v", seats, err)
	}
}

func TestCreateTransaction_Payload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/transactions" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		want := `{"schedule_id":7,"seat_numbers":[1,2,3],"payment_method":"e_wallet","promo_code":"HEMAT10"}`
		if string(raw) != want {
			t.Fatalf("unexpected body: %s", raw)
		}
		writeEnvelope(w, http.StatusCreated, "created", map[string]any{"id": 99, "payment_status": "pending", "total_amount": 202500})
	})

	tx, err := client.CreateTransaction(context.Background(), model.TransactionInput{
		ScheduleId:    7,
		SeatNumbers:   []int{1, 2, 3},
		PaymentMethod: model.PaymentEWallet,
		PromoCode:     " HEMAT10 ",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if tx.Id != 99 || !tx.TotalAmount.Equal(decimal.NewFromInt(202500)) {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestCreateTransaction_OmitsEmptyPromo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if strings.Contains(string(raw), "promo_code") {
			t.Fatalf("unexpected promo in body: %s", raw)
		}
		writeEnvelope(w, http.StatusCreated, "created", map[string]any{"id": 1})
	})

	if _, err := client.CreateTransaction(context.Background(), model.TransactionInput{ScheduleId: 1, SeatNumbers: []int{1}}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestPayTransaction_Payload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transactions/12/payment" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body model.PaymentInput
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.PaymentStatus != "success" || body.PaymentNote != "Paid via Credit Card" {
			t.Fatalf("unexpected body: %+v", body)
		}
		writeEnvelope(w, http.StatusOK, "paid", nil)
	})

	if err := client.PayTransaction(context.Background(), 12, model.PaymentCreditCard); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestActivePromos_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("is_active") != "true" || r.URL.Query().Get("per_page") != "50" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"data": []map[string]any{{"code": "HEMAT10", "discount_type": "percentage", "discount_value": 10, "max_discount": 50000}},
		})
	})

	promos, err := client.ActivePromos(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(promos) != 1 || promos[0].MaxDiscount == nil || !promos[0].MaxDiscount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected promos: %+v", promos)
	}
}

func TestCreateMovie_MultipartWithPoster(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body, got %v", err)
		}
		if r.FormValue("title") != "Dune" || r.FormValue("duration") != "155" {
			t.Fatalf("unexpected fields: %+v", r.MultipartForm.Value)
		}
		if ids := r.MultipartForm.Value["genre_ids"]; len(ids) != 2 || ids[1] != "4" {
			t.Fatalf("unexpected genre ids: %+v", ids)
		}
		file, header, err := r.FormFile("poster")
		if err != nil {
			t.Fatalf("expected poster, got %v", err)
		}
		defer file.Close()
		contents, _ := io.ReadAll(file)
		if header.Filename != "dune.png" || string(contents) != "png-bytes" {
			t.Fatalf("unexpected poster: %s %q", header.Filename, contents)
		}
		writeEnvelope(w, http.StatusCreated, "created", nil)
	})

	err := client.CreateMovie(context.Background(), model.MovieInput{Title: "Dune", Duration: 155, GenreIds: []int{1, 4}},
		&PosterFile{Name: "dune.png", Contents: strings.NewReader("png-bytes")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestCreateGenre_JSONAndValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		writeEnvelope(w, http.StatusCreated, "created", nil)
	})

	if err := client.CreateGenre(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank name")
	}
	if err := client.CreateGenre(context.Background(), "Sci-Fi"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/users/4" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		writeEnvelope(w, http.StatusNotFound, "user not found", nil)
	})

	err := client.DeleteUser(context.Background(), 4)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
