package booking

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"cinema-ticket-cli/model"
)

var hundred = decimal.NewFromInt(100)

// Quote is the displayed price breakdown of a checkout.
type Quote struct {
	SeatCount    int
	PricePerSeat decimal.Decimal
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	PromoCode    string
}

// Calculate prices seatCount seats at pricePerSeat with an optional promo.
// Eligibility (minimum tickets, validity window) is not checked here; the
// API rejects an ineligible promo when the transaction is created.
func Calculate(pricePerSeat decimal.Decimal, seatCount int, promo *model.Promo) Quote {
	if seatCount < 0 {
		seatCount = 0
	}
	subtotal := pricePerSeat.Mul(decimal.NewFromInt(int64(seatCount)))
	q := Quote{
		SeatCount:    seatCount,
		PricePerSeat: pricePerSeat,
		Subtotal:     subtotal,
		Discount:     decimal.Zero,
		Total:        subtotal,
	}
	if promo == nil {
		return q
	}

	q.PromoCode = promo.Code
	q.Discount = Discount(subtotal, *promo)
	q.Total = decimal.Max(decimal.Zero, subtotal.Sub(q.Discount))
	return q
}

// Discount returns the promo's reduction of subtotal. Anything that is not a
// percentage promo is applied as a flat amount.
func Discount(subtotal decimal.Decimal, promo model.Promo) decimal.Decimal {
	if !strings.EqualFold(promo.DiscountType, model.PromoPercentage) {
		return promo.DiscountValue
	}
	discount := subtotal.Mul(promo.DiscountValue).Div(hundred)
	if promo.MaxDiscount != nil && promo.MaxDiscount.IsPositive() && discount.GreaterThan(*promo.MaxDiscount) {
		return *promo.MaxDiscount
	}
	return discount
}

// FormatRupiah renders an amount with thousands separators, e.g.
// "Rp 225,000".
func FormatRupiah(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	whole := amount.Truncate(0)
	text := humanize.Comma(whole.IntPart())
	if frac := amount.Sub(whole); !frac.IsZero() {
		text += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	return sign + "Rp " + text
}

// DescribePromo is the one-line summary shown in promo pickers.
func DescribePromo(promo model.Promo) string {
	if strings.EqualFold(promo.DiscountType, model.PromoPercentage) {
		text := promo.DiscountValue.String() + "% off"
		if promo.MaxDiscount != nil && promo.MaxDiscount.IsPositive() {
			text += " (max " + FormatRupiah(*promo.MaxDiscount) + ")"
		}
		return text
	}
	return FormatRupiah(promo.DiscountValue) + " off"
}
