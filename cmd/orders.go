package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
)

func newOrdersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			status = strings.ToLower(strings.TrimSpace(status))

			ctx, cancel := e.ctx()
			defer cancel()
			page, err := e.client.MyTransactions(ctx, status, pageParams(cmd))
			if err != nil {
				return err
			}
			if len(page.Data) == 0 {
				fmt.Fprintln(e.out, "No bookings yet.")
				return nil
			}

			t := newTable(e.out, table.Row{"ID", "Booked", "Movie", "Showtime", "Seats", "Total", "Status"})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 30}})
			for _, tx := range page.Data {
				schedule, _ := tx.Schedule()
				t.AppendRow(table.Row{
					tx.Id,
					formatShowtime(tx.CreatedAt),
					orDash(schedule.Movie.Title),
					formatShowtime(schedule.StartTime),
					seatLabels(tx, schedule),
					booking.FormatRupiah(tx.TotalAmount),
					tx.PaymentStatus,
				})
			}
			renderPage(t, page.Page, page.TotalPage, page.Total)
			return nil
		},
	}
	addPageFlags(cmd)
	cmd.Flags().String("status", "", "only show pending, success or failed bookings")
	return cmd
}

func seatLabels(tx model.Transaction, schedule model.Schedule) string {
	capacity := schedule.Studio.SeatCapacity
	if capacity <= 0 {
		capacity = booking.FallbackCapacity
	}
	return strings.Join(booking.LabelSeats(tx.SeatNumbers(), capacity), ", ")
}

func newOrderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "order <id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()
			tx, err := e.client.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			printOrder(e, tx)
			return nil
		},
	}
}

func printOrder(e *env, tx model.Transaction) {
	schedule, _ := tx.Schedule()
	t := newTable(e.out, table.Row{"Booking", fmt.Sprintf("#%d", tx.Id)})
	t.AppendRows([]table.Row{
		{"Movie", orDash(schedule.Movie.Title)},
		{"Studio", orDash(schedule.Studio.Name)},
		{"Showtime", formatShowtime(schedule.StartTime)},
		{"Seats", orDash(seatLabels(tx, schedule))},
		{"Payment", model.PaymentMethodLabel(tx.PaymentMethod)},
		{"Status", tx.PaymentStatus},
	})
	if tx.OriginalAmount != nil {
		t.AppendRow(table.Row{"Subtotal", booking.FormatRupiah(*tx.OriginalAmount)})
	}
	if tx.DiscountAmount.IsPositive() {
		t.AppendRow(table.Row{"Discount", "-" + booking.FormatRupiah(tx.DiscountAmount)})
	}
	t.AppendFooter(table.Row{"Total", booking.FormatRupiah(tx.TotalAmount)})
	t.Render()
}

func newPayCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Pay a pending booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(e); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := e.ctx()
			defer cancel()

			tx, err := e.client.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			if !strings.EqualFold(tx.PaymentStatus, model.PaymentPending) {
				return errors.Newf("booking #%d is %s, only pending bookings can be paid", id, tx.PaymentStatus)
			}

			rawMethod, _ := cmd.Flags().GetString("method")
			method := tx.PaymentMethod
			if strings.TrimSpace(rawMethod) != "" {
				if method, err = normalizePaymentMethod(rawMethod); err != nil {
					return err
				}
			} else if method == "" {
				if method, err = promptPaymentMethod(); err != nil {
					return err
				}
			}

			if err := e.client.PayTransaction(ctx, id, method); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Booking #%d paid via %s.\n", id, model.PaymentMethodLabel(method))
			return nil
		},
	}
	cmd.Flags().String("method", "", "payment method: credit_card or e_wallet")
	return cmd
}
