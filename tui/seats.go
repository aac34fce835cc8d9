package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/booking"
)

func (m appModel) handleSeatKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if m.seats == nil {
		return m, nil, false
	}
	switch msg.String() {
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case " ":
		m.toggleSeat(m.cursor)
	case "c":
		m.seats.Clear()
		m.notice = ""
	case "n":
		m.showSeatNumbers = !m.showSeatNumbers
	case "enter":
		if len(m.seats.Selection()) == 0 {
			m.notice = "Pick at least one seat first."
			return m, nil, true
		}
		m.notice = ""
		m.state = stateCheckout
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m *appModel) toggleSeat(n int) {
	outcome, err := m.seats.Toggle(n)
	switch {
	case errors.Is(err, booking.ErrSelectionLimit):
		m.notice = fmt.Sprintf("Limit reached: you can pick up to %d seats per booking.", m.seats.MaxSeats())
	case err != nil:
		m.notice = err.Error()
	case outcome == booking.Ignored:
		m.notice = fmt.Sprintf("Seat %s is already booked.", m.seats.Label(n))
	default:
		m.notice = ""
	}
}

// moveCursor steps the cursor by whole rows or single columns and stays put
// at the edges of the grid.
func (m *appModel) moveCursor(dRow, dCol int) {
	if m.seats == nil || m.seats.Capacity() == 0 {
		return
	}
	cols := m.seats.Columns()
	row, col := booking.Position(m.cursor, cols)
	row += dRow
	col += dCol
	if row < 0 || col < 1 || col > cols {
		return
	}
	next := row*cols + col
	if next < 1 || next > m.seats.Capacity() {
		return
	}
	m.cursor = next
}

func firstFreeSeat(seats *booking.Map) int {
	for n := 1; n <= seats.Capacity(); n++ {
		if !seats.IsBooked(n) {
			return n
		}
	}
	return 1
}

func (m appModel) renderSeatMap() string {
	if m.seats == nil || m.seats.Capacity() == 0 {
		return "No seat map data."
	}

	rows := m.seats.Rows()
	rowWidth := max(2, len(booking.RowLabel(len(rows)-1)))

	cellWidth := 2
	if m.showSeatNumbers {
		for _, row := range rows {
			for _, seat := range row {
				cellWidth = max(cellWidth, len(seat.Label))
			}
		}
	}

	seatStyleAvailable := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleBooked := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected := lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)

	gridWidth := m.seats.Columns()*(cellWidth+1) - 1
	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	screenBorderStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Background(lipgloss.Color("236"))
	screenBar := screenBarBlock(gridWidth, "SCREEN")

	var b strings.Builder
	indent := strings.Repeat(" ", rowWidth+1)
	b.WriteString(indent)
	b.WriteString(screenBorderStyle.Render(screenBar.top))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(screenStyle.Render(screenBar.mid))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString(screenBorderStyle.Render(screenBar.bot))
	b.WriteString("\n\n")

	for r, row := range rows {
		label := booking.RowLabel(r)
		b.WriteString(fmt.Sprintf("%*s ", rowWidth, label))
		for i, seat := range row {
			token, style := seatToken(seat), seatStyleAvailable
			switch {
			case seat.Selected:
				style = seatStyleSelected
			case seat.Booked:
				style = seatStyleBooked
			}
			text := token
			if m.showSeatNumbers && !seat.Booked {
				text = seat.Label
			}
			if seat.Number == m.cursor {
				style = style.Reverse(true)
			}
			b.WriteString(style.Render(padCell(text, cellWidth)))
			if i < len(row)-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %*s\n", rowWidth, label))
	}
	b.WriteString("\n")

	legend := "Legend: [] available • XX booked • ** selected • highlighted seat is the cursor"
	if m.showSeatNumbers {
		legend = "Legend: green available • red booked • purple selected • highlighted seat is the cursor"
	}
	selected := m.seats.SelectionLabels()
	picked := "none"
	if len(selected) > 0 {
		picked = strings.Join(selected, ", ")
	}
	available := m.seats.Capacity() - m.seats.BookedCount()
	counts := fmt.Sprintf("Seat %s • Selected: %s (%d/%d) • Available: %d of %d • %s per seat",
		m.seats.Label(m.cursor), picked, len(selected), m.seats.MaxSeats(), available, m.seats.Capacity(),
		booking.FormatRupiah(m.schedule.Price))

	out := b.String() + hint(legend) + "\n" + hint(counts)
	return out + m.noticeView()
}

func seatToken(seat booking.Seat) string {
	switch {
	case seat.Selected:
		return "**"
	case seat.Booked:
		return "XX"
	default:
		return "[]"
	}
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
