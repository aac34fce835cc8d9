// Package booking holds the client-side seat grid and checkout arithmetic.
// Neither is authoritative: the API re-validates seats and recomputes the
// charged amount when a transaction is created.
package booking

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	MinColumns = 5
	MaxColumns = 20

	// DefaultMaxSeats bounds how many seats one checkout may hold.
	DefaultMaxSeats = 5

	// FallbackCapacity is used when a schedule arrives without its studio.
	FallbackCapacity = 10
)

var (
	ErrSelectionLimit = errors.New("seat selection limit reached")
	ErrSeatOutOfRange = errors.New("seat number out of range")
)

// Columns picks a roughly square grid width for the given capacity.
func Columns(capacity int) int {
	if capacity < 0 {
		capacity = 0
	}
	cols := int(math.Round(math.Sqrt(float64(capacity))))
	return min(MaxColumns, max(MinColumns, cols))
}

// Position returns the zero-based row and one-based column of seat n.
func Position(n int, columns int) (int, int) {
	return (n - 1) / columns, ((n - 1) % columns) + 1
}

// RowLabel converts a zero-based row index to A..Z, AA..AZ, BA.. and so on.
func RowLabel(row int) string {
	if row < 0 {
		return ""
	}
	var b []byte
	for r := row + 1; r > 0; r = (r - 1) / 26 {
		b = append([]byte{byte('A' + (r-1)%26)}, b...)
	}
	return string(b)
}

func SeatLabel(n int, columns int) string {
	row, col := Position(n, columns)
	return RowLabel(row) + strconv.Itoa(col)
}

// ParseLabel is the inverse of SeatLabel. A bare number is taken as a seat
// number as-is.
func ParseLabel(label string, columns int) (int, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return 0, errors.New("empty seat label")
	}
	if n, err := strconv.Atoi(label); err == nil {
		return n, nil
	}

	split := strings.IndexFunc(label, func(r rune) bool { return r >= '0' && r <= '9' })
	if split <= 0 {
		return 0, fmt.Errorf("invalid seat label %q", label)
	}
	letters, digits := label[:split], label[split:]

	row := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid seat label %q", label)
		}
		row = row*26 + int(r-'A'+1)
	}
	col, err := strconv.Atoi(digits)
	if err != nil || col < 1 || col > columns {
		return 0, fmt.Errorf("invalid seat column in %q", label)
	}
	return (row-1)*columns + col, nil
}

type Seat struct {
	Number   int
	Row      int
	Column   int
	Label    string
	Booked   bool
	Selected bool
}

// Outcome describes what a Toggle did to the selection.
type Outcome int

const (
	Ignored Outcome = iota
	Selected
	Deselected
)

// Map is the seat grid of one screening together with the current user's
// selection.
type Map struct {
	capacity  int
	columns   int
	maxSeats  int
	booked    map[int]bool
	selection []int
}

// NewMap builds the grid for capacity seats. Booked seat numbers outside
// 1..capacity are ignored; maxSeats below 1 falls back to DefaultMaxSeats.
func NewMap(capacity int, booked []int, maxSeats int) *Map {
	if capacity < 0 {
		capacity = 0
	}
	if maxSeats < 1 {
		maxSeats = DefaultMaxSeats
	}
	m := &Map{
		capacity: capacity,
		columns:  Columns(capacity),
		maxSeats: maxSeats,
		booked:   make(map[int]bool, len(booked)),
	}
	for _, n := range booked {
		if n >= 1 && n <= capacity {
			m.booked[n] = true
		}
	}
	return m
}

func (m *Map) Capacity() int { return m.capacity }
func (m *Map) Columns() int  { return m.columns }
func (m *Map) MaxSeats() int { return m.maxSeats }

func (m *Map) RowCount() int {
	if m.capacity == 0 {
		return 0
	}
	return (m.capacity-1)/m.columns + 1
}

func (m *Map) Label(n int) string {
	return SeatLabel(n, m.columns)
}

func (m *Map) IsBooked(n int) bool {
	return m.booked[n]
}

func (m *Map) IsSelected(n int) bool {
	return m.indexOf(n) >= 0
}

func (m *Map) BookedCount() int {
	return len(m.booked)
}

// Toggle flips seat n in the selection. Booked seats are left alone, and a
// new seat is refused with ErrSelectionLimit once the selection is full.
func (m *Map) Toggle(n int) (Outcome, error) {
	if n < 1 || n > m.capacity {
		return Ignored, fmt.Errorf("%w: %d", ErrSeatOutOfRange, n)
	}
	if i := m.indexOf(n); i >= 0 {
		m.selection = append(m.selection[:i], m.selection[i+1:]...)
		return Deselected, nil
	}
	if m.booked[n] {
		return Ignored, nil
	}
	if len(m.selection) >= m.maxSeats {
		return Ignored, ErrSelectionLimit
	}
	m.selection = append(m.selection, n)
	return Selected, nil
}

// Selection returns the selected seat numbers in the order they were picked.
func (m *Map) Selection() []int {
	return append([]int(nil), m.selection...)
}

func (m *Map) SelectionLabels() []string {
	labels := make([]string, 0, len(m.selection))
	for _, n := range m.selection {
		labels = append(labels, m.Label(n))
	}
	return labels
}

func (m *Map) Full() bool {
	return len(m.selection) >= m.maxSeats
}

func (m *Map) Clear() {
	m.selection = nil
}

func (m *Map) Seat(n int) Seat {
	row, col := Position(n, m.columns)
	return Seat{
		Number:   n,
		Row:      row,
		Column:   col,
		Label:    RowLabel(row) + strconv.Itoa(col),
		Booked:   m.booked[n],
		Selected: m.IsSelected(n),
	}
}

// Rows lays the seats out row-major; the last row may be short.
func (m *Map) Rows() [][]Seat {
	rows := make([][]Seat, 0, m.RowCount())
	for start := 1; start <= m.capacity; start += m.columns {
		end := min(m.capacity, start+m.columns-1)
		row := make([]Seat, 0, end-start+1)
		for n := start; n <= end; n++ {
			row = append(row, m.Seat(n))
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Map) indexOf(n int) int {
	for i, selected := range m.selection {
		if selected == n {
			return i
		}
	}
	return -1
}

// LabelSeats renders seat numbers using the grid of the given capacity.
func LabelSeats(seats []int, capacity int) []string {
	columns := Columns(capacity)
	labels := make([]string, 0, len(seats))
	for _, n := range seats {
		labels = append(labels, SeatLabel(n, columns))
	}
	return labels
}
