package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/model"
)

// ActivePromos is the promo list offered at checkout.
func (c *Client) ActivePromos(ctx context.Context) ([]model.Promo, error) {
	page, err := c.ListPromos(ctx, true, model.ListParams{PerPage: 50})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) ListPromos(ctx context.Context, activeOnly bool, params model.ListParams) (model.Page[model.Promo], error) {
	query := pageQuery(params)
	if activeOnly {
		query.Set("is_active", "true")
	}
	var page model.Page[model.Promo]
	if err := c.get(ctx, "/promos", query, &page); err != nil {
		return model.Page[model.Promo]{}, err
	}
	return page, nil
}

func (c *Client) CreatePromo(ctx context.Context, in model.PromoInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("promo code is required")
	}
	return c.sendJSON(ctx, http.MethodPost, "/promos", in, nil)
}

func (c *Client) UpdatePromo(ctx context.Context, id int, in model.PromoInput) error {
	if id <= 0 {
		return errors.New("promo id is required")
	}
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/promos/%d", id), in, nil)
}

func (c *Client) DeletePromo(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/promos", id)
}

// CreateTransaction books seats. The server recomputes the amounts; the
// client-side quote is display only.
func (c *Client) CreateTransaction(ctx context.Context, in model.TransactionInput) (model.Transaction, error) {
	if in.ScheduleId <= 0 {
		return model.Transaction{}, errors.New("schedule id is required")
	}
	if len(in.SeatNumbers) == 0 {
		return model.Transaction{}, errors.New("at least one seat is required")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = model.PaymentCreditCard
	}
	in.PromoCode = strings.TrimSpace(in.PromoCode)

	var tx model.Transaction
	if err := c.sendJSON(ctx, http.MethodPost, "/transactions", in, &tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func (c *Client) MyTransactions(ctx context.Context, status string, params model.ListParams) (model.Page[model.Transaction], error) {
	query := pageQuery(params)
	if status != "" {
		query.Set("payment_status", status)
	}
	var page model.Page[model.Transaction]
	if err := c.get(ctx, "/transactions/my", query, &page); err != nil {
		return model.Page[model.Transaction]{}, err
	}
	return page, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int) (model.Transaction, error) {
	if id <= 0 {
		return model.Transaction{}, errors.New("transaction id is required")
	}
	var tx model.Transaction
	if err := c.get(ctx, fmt.Sprintf("/transactions/%d", id), nil, &tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// PayTransaction settles a pending order with the given method.
func (c *Client) PayTransaction(ctx context.Context, id int, method string) error {
	if id <= 0 {
		return errors.New("transaction id is required")
	}
	in := model.PaymentInput{
		PaymentStatus: model.PaymentSuccess,
		PaymentNote:   "Paid via " + model.PaymentMethodLabel(method),
	}
	return c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/transactions/%d/payment", id), in, nil)
}
