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

func (m appModel) handleCheckoutKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "p":
		m.notice = ""
		m.state = stateLoadingPromos
		return m, tea.Batch(m.fetchPromosCmd(), m.spinner.Tick), true
	case "r":
		m.promo = nil
		m.notice = ""
		return m, nil, true
	case "tab":
		m.paymentIdx = (m.paymentIdx + 1) % len(model.PaymentMethods)
		return m, nil, true
	case "shift+tab":
		m.paymentIdx = (m.paymentIdx + len(model.PaymentMethods) - 1) % len(model.PaymentMethods)
		return m, nil, true
	case "enter":
		if m.seats == nil || len(m.seats.Selection()) == 0 {
			m.notice = "Pick at least one seat first."
			return m, nil, true
		}
		if !m.loggedIn {
			m.openLogin(stateCheckout, stateCheckout, "Log in to complete your booking.")
			return m, nil, true
		}
		m.notice = ""
		m.state = stateSubmitting
		return m, tea.Batch(m.createTransactionCmd(), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) paymentMethod() string {
	return model.PaymentMethods[m.paymentIdx%len(model.PaymentMethods)]
}

func (m appModel) quote() booking.Quote {
	count := 0
	if m.seats != nil {
		count = len(m.seats.Selection())
	}
	return booking.Calculate(m.schedule.Price, count, m.promo)
}

func (m appModel) checkoutView() string {
	q := m.quote()
	label := lipgloss.NewStyle().Width(24)
	bold := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(bold.Render("Checkout"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s • %s • %s\n", m.movie.Title, m.schedule.Studio.Name, m.schedule.StartTime.Local().Format("Mon 02 Jan 15:04")))
	if m.seats != nil {
		b.WriteString(fmt.Sprintf("Seats: %s\n", strings.Join(m.seats.SelectionLabels(), ", ")))
	}
	b.WriteString("\n")
	b.WriteString(label.Render(fmt.Sprintf("Subtotal (%d seats)", q.SeatCount)) + booking.FormatRupiah(q.Subtotal) + "\n")
	if m.promo != nil {
		b.WriteString(label.Render(fmt.Sprintf("Discount (%s)", m.promo.Code)) + "-" + booking.FormatRupiah(q.Discount) + "\n")
	}
	b.WriteString(label.Render("Total") + bold.Render(booking.FormatRupiah(q.Total)) + "\n\n")

	b.WriteString("Payment: ")
	for i, method := range model.PaymentMethods {
		text := model.PaymentMethodLabel(method)
		if i == m.paymentIdx%len(model.PaymentMethods) {
			text = lipgloss.NewStyle().Reverse(true).Render(" " + text + " ")
		} else {
			text = " " + text + " "
		}
		b.WriteString(text + " ")
	}
	b.WriteString("\n")
	if m.promo != nil {
		b.WriteString(fmt.Sprintf("Promo: %s • %s\n", m.promo.Code, booking.DescribePromo(*m.promo)))
	} else {
		b.WriteString(hint("No promo applied. Press p to browse promos.") + "\n")
	}
	if !m.loggedIn {
		b.WriteString(hint("You will be asked to log in when you confirm.") + "\n")
	}
	return b.String() + m.noticeView()
}

func (m appModel) fetchPromosCmd() tea.Cmd {
	return func() tea.Msg {
		promos, err := m.client.ActivePromos(context.Background())
		return promosMsg{promos: promos, err: err}
	}
}

func (m appModel) createTransactionCmd() tea.Cmd {
	in := model.TransactionInput{
		ScheduleId:    m.schedule.Id,
		SeatNumbers:   m.seats.Selection(),
		PaymentMethod: m.paymentMethod(),
	}
	if m.promo != nil {
		in.PromoCode = m.promo.Code
	}
	return func() tea.Msg {
		tx, err := m.client.CreateTransaction(context.Background(), in)
		return bookedMsg{tx: tx, err: err}
	}
}
