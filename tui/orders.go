package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinema-ticket-cli/booking"
	"cinema-ticket-cli/model"
)

func (m appModel) handleOrderDetailKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if m.order.PaymentStatus != model.PaymentPending {
		return m, nil, false
	}
	switch msg.String() {
	case "tab":
		m.paymentIdx = (m.paymentIdx + 1) % len(model.PaymentMethods)
		return m, nil, true
	case "p":
		m.notice = ""
		m.state = stateSubmitting
		return m, tea.Batch(m.payCmd(m.order.Id, m.paymentMethod()), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) orderDetailView() string {
	order := m.order
	label := lipgloss.NewStyle().Width(18).Faint(true)
	bold := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(bold.Render(fmt.Sprintf("Order #%d", order.Id)))
	b.WriteString("  ")
	b.WriteString(statusBadge(order.PaymentStatus))
	b.WriteString("\n\n")

	if schedule, ok := order.Schedule(); ok {
		capacity := schedule.Studio.SeatCapacity
		if capacity <= 0 {
			capacity = booking.FallbackCapacity
		}
		b.WriteString(label.Render("Movie") + schedule.Movie.Title + "\n")
		b.WriteString(label.Render("Studio") + schedule.Studio.Name + "\n")
		b.WriteString(label.Render("Show time") + schedule.StartTime.Local().Format("Mon 02 Jan 2006 15:04") + "\n")
		b.WriteString(label.Render("Seats") + strings.Join(booking.LabelSeats(order.SeatNumbers(), capacity), ", ") + "\n")
	}
	if order.PaymentMethod != "" {
		b.WriteString(label.Render("Payment method") + model.PaymentMethodLabel(order.PaymentMethod) + "\n")
	}
	if !order.CreatedAt.IsZero() {
		b.WriteString(label.Render("Ordered at") + order.CreatedAt.Local().Format("02 Jan 2006 15:04") + "\n")
	}
	b.WriteString("\n")
	if order.OriginalAmount != nil {
		b.WriteString(label.Render("Subtotal") + booking.FormatRupiah(*order.OriginalAmount) + "\n")
	}
	if order.DiscountAmount.IsPositive() {
		b.WriteString(label.Render("Discount") + "-" + booking.FormatRupiah(order.DiscountAmount) + "\n")
	}
	b.WriteString(label.Render("Total") + bold.Render(booking.FormatRupiah(order.TotalAmount)) + "\n")

	if order.PaymentStatus == model.PaymentPending {
		b.WriteString("\n")
		b.WriteString(hint(fmt.Sprintf("Press p to pay with %s (tab to switch).", model.PaymentMethodLabel(m.paymentMethod()))))
		b.WriteString("\n")
	}
	return b.String() + m.noticeView()
}

func statusBadge(status string) string {
	color := lipgloss.Color("3")
	switch status {
	case model.PaymentSuccess:
		color = lipgloss.Color("2")
	case model.PaymentFailed:
		color = lipgloss.Color("1")
	}
	if status == "" {
		status = "unknown"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(strings.ToUpper(status))
}

func (m appModel) payCmd(id int, method string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.PayTransaction(context.Background(), id, method)
		return paidMsg{id: id, err: err}
	}
}
