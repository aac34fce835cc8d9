package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
	"cinema-ticket-cli/store"
)

func newBookCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book <schedule-id>",
		Short: "Book seats for a screening",
		Long: `Book seats for a screening, e.g.

  cinema book 42 --seats A1,A2 --promo HEMAT10 --method e_wallet

Seats are row letters plus column (A1, B7) or plain seat numbers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rawSeats, _ := cmd.Flags().GetString("seats")
			if strings.TrimSpace(rawSeats) == "" {
				return errors.New("pick at least one seat with --seats")
			}
			promoCode, _ := cmd.Flags().GetString("promo")
			rawMethod, _ := cmd.Flags().GetString("method")
			yes, _ := cmd.Flags().GetBool("yes")
			payNow, _ := cmd.Flags().GetBool("pay")

			ctx, cancel := e.ctx()
			defer cancel()

			schedule, seats, err := loadSeatMap(ctx, e, id)
			if err != nil {
				return err
			}
			if err := selectSeats(seats, rawSeats); err != nil {
				return err
			}

			var promo *model.Promo
			if code := strings.TrimSpace(promoCode); code != "" {
				if promo, err = findPromo(ctx, e, code); err != nil {
					return err
				}
			}

			method := ""
			if strings.TrimSpace(rawMethod) != "" {
				if method, err = normalizePaymentMethod(rawMethod); err != nil {
					return err
				}
			} else if method, err = promptPaymentMethod(); err != nil {
				return err
			}

			quote := booking.Calculate(schedule.Price, len(seats.Selection()), promo)
			fmt.Fprintf(e.out, "%s, %s, %s\n", schedule.Movie.Title, orDash(schedule.Studio.Name), formatShowtime(schedule.StartTime))
			printSeatMap(e, seats)
			printQuote(e, quote, seats.SelectionLabels(), method)

			if !yes {
				if err := confirm("Confirm booking", "use --yes"); err != nil {
					return err
				}
			}

			tx, err := e.client.CreateTransaction(ctx, model.TransactionInput{
				ScheduleId:    schedule.Id,
				SeatNumbers:   seats.Selection(),
				PaymentMethod: method,
				PromoCode:     quote.PromoCode,
			})
			if err != nil {
				return err
			}
			_ = store.DropScheduleCache(schedule.StartTime.Local().Format(time.DateOnly))
			e.log.WithField("transaction_id", tx.Id).WithField("seats", seats.SelectionLabels()).Info("booking created")

			if tx.Id == 0 {
				fmt.Fprintln(e.out, "Booking created. See `cinema orders`.")
				return nil
			}
			fmt.Fprintf(e.out, "Booking #%d created, %s due.\n", tx.Id, booking.FormatRupiah(tx.TotalAmount))
			if !payNow {
				fmt.Fprintf(e.out, "Pay with `cinema pay %d` before the screening starts.\n", tx.Id)
				return nil
			}
			if err := e.client.PayTransaction(ctx, tx.Id, method); err != nil {
				return errors.Wrapf(err, "booking #%d was created but payment failed", tx.Id)
			}
			fmt.Fprintf(e.out, "Paid via %s.\n", model.PaymentMethodLabel(method))
			return nil
		},
	}
	cmd.Flags().String("seats", "", "comma separated seats, e.g. A1,A2")
	cmd.Flags().String("promo", "", "promo code to apply")
	cmd.Flags().String("method", "", "payment method: credit_card or e_wallet (prompted when empty)")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	cmd.Flags().Bool("pay", false, "pay right after booking")
	return cmd
}

// selectSeats applies the requested labels to the seat map in order.
func selectSeats(seats *booking.Map, raw string) error {
	for _, label := range strings.Split(raw, ",") {
		if strings.TrimSpace(label) == "" {
			continue
		}
		n, err := booking.ParseLabel(label, seats.Columns())
		if err != nil {
			return err
		}
		if seats.IsSelected(n) {
			continue
		}
		if seats.IsBooked(n) {
			return errors.Newf("seat %s is already booked", seats.Label(n))
		}
		outcome, err := seats.Toggle(n)
		if errors.Is(err, booking.ErrSelectionLimit) {
			return errors.Newf("at most %d seats can be booked at once", seats.MaxSeats())
		}
		if err != nil {
			return errors.Newf("seat %s does not exist in this studio", strings.ToUpper(strings.TrimSpace(label)))
		}
		if outcome != booking.Selected {
			return errors.Newf("seat %s cannot be selected", seats.Label(n))
		}
	}
	if len(seats.Selection()) == 0 {
		return errors.New("pick at least one seat with --seats")
	}
	return nil
}

// findPromo looks the code up among active promos for the price preview.
func findPromo(ctx context.Context, e *env, code string) (*model.Promo, error) {
	promos, err := e.client.ActivePromos(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load promos")
	}
	for _, promo := range promos {
		if strings.EqualFold(promo.Code, code) {
			promo := promo
			return &promo, nil
		}
	}
	return nil, errors.Newf("promo %q is not active", code)
}

func printQuote(e *env, quote booking.Quote, labels []string, method string) {
	t := newTable(e.out, table.Row{"Item", "Amount"})
	t.AppendRow(table.Row{
		fmt.Sprintf("%d x %s (%s)", quote.SeatCount, booking.FormatRupiah(quote.PricePerSeat), strings.Join(labels, ", ")),
		booking.FormatRupiah(quote.Subtotal),
	})
	if quote.PromoCode != "" {
		t.AppendRow(table.Row{"Promo " + quote.PromoCode, "-" + booking.FormatRupiah(quote.Discount)})
	}
	t.AppendFooter(table.Row{"Total (" + model.PaymentMethodLabel(method) + ")", booking.FormatRupiah(quote.Total)})
	t.Render()
}
