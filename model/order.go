package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PromoPercentage  = "percentage"
	PromoFixedAmount = "fixed_amount"
)

type Promo struct {
	Id            int              `json:"id"`
	Name          string           `json:"name"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinTickets    int              `json:"min_tickets,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	UsageLimit    *int             `json:"usage_limit,omitempty"`
	IsActive      bool             `json:"is_active"`
	ValidFrom     time.Time        `json:"valid_from,omitempty"`
	ValidUntil    time.Time        `json:"valid_until,omitempty"`
}

type PromoInput struct {
	Name          string           `json:"name"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	DiscountType  string           `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
	MinTickets    int              `json:"min_tickets,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	IsActive      bool             `json:"is_active"`
	ValidFrom     string           `json:"valid_from,omitempty"`
	ValidUntil    string           `json:"valid_until,omitempty"`
}

const (
	PaymentCreditCard = "credit_card"
	PaymentEWallet    = "e_wallet"
)

// PaymentMethods lists the methods offered at checkout, in display order.
var PaymentMethods = []string{PaymentCreditCard, PaymentEWallet}

func PaymentMethodLabel(method string) string {
	if method == PaymentCreditCard {
		return "Credit Card"
	}
	return "E-Wallet"
}

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

type Ticket struct {
	Id         int             `json:"id"`
	ScheduleId int             `json:"schedule_id,omitempty"`
	SeatNumber int             `json:"seat_number"`
	Status     string          `json:"status"`
	Price      decimal.Decimal `json:"price"`
	Schedule   Schedule        `json:"schedule"`
}

type Transaction struct {
	Id             int              `json:"id"`
	UserId         int              `json:"user_id"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	OriginalAmount *decimal.Decimal `json:"original_amount,omitempty"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	PaymentMethod  string           `json:"payment_method"`
	PaymentStatus  string           `json:"payment_status"`
	CreatedAt      time.Time        `json:"created_at"`
	User           User             `json:"user"`
	Tickets        []Ticket         `json:"tickets"`
}

// Schedule returns the screening of the first ticket; every ticket of a
// transaction belongs to the same schedule.
func (t Transaction) Schedule() (Schedule, bool) {
	if len(t.Tickets) == 0 {
		return Schedule{}, false
	}
	return t.Tickets[0].Schedule, true
}

func (t Transaction) SeatNumbers() []int {
	seats := make([]int, 0, len(t.Tickets))
	for _, ticket := range t.Tickets {
		seats = append(seats, ticket.SeatNumber)
	}
	return seats
}

type TransactionInput struct {
	ScheduleId    int    `json:"schedule_id"`
	SeatNumbers   []int  `json:"seat_numbers"`
	PaymentMethod string `json:"payment_method"`
	PromoCode     string `json:"promo_code,omitempty"`
}

type PaymentInput struct {
	PaymentStatus string `json:"payment_status"`
	PaymentNote   string `json:"payment_note"`
}
