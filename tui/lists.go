package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("63")

	chipStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(accent).
			Padding(0, 1)
	keyChipStyle = chipStyle.Width(9).Align(lipgloss.Center)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 3).
			MarginTop(1)
)

var loadingTitles = map[appState]string{
	stateLoadingSchedules: "Loading schedules",
	stateLoadingSeats:     "Loading seats",
	stateLoadingPromos:    "Loading promos",
	stateSubmitting:       "Submitting booking",
	stateLoadingOrders:    "Loading orders",
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowFilter(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = l.Styles.Title.Background(accent)
	return l
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	folded := make([]string, 0, len(targets))
	for _, target := range targets {
		folded = append(folded, strings.ToLower(target))
	}
	return list.DefaultFilter(strings.ToLower(term), folded)
}

func (m *appModel) allLists() []*list.Model {
	return []*list.Model{&m.movieList, &m.scheduleList, &m.promoList, &m.orderList, &m.dateList}
}

// activeList is the list on screen, if the current state shows one.
func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateSelectSchedule:
		return &m.scheduleList
	case stateSelectPromo:
		return &m.promoList
	case stateOrders:
		return &m.orderList
	}
	return nil
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	height := max(6, m.height-6)
	for _, l := range m.allLists() {
		l.SetSize(m.width, height)
	}
}

// handleFilterInput types straight into the active list's filter, so the
// user never has to press "/" first. It reports whether msg was consumed.
func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	l := m.activeList()
	if l == nil || !l.FilteringEnabled() {
		return false
	}

	text := l.FilterValue()
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		text += string(msg.Runes)
	case tea.KeySpace:
		text += " "
	case tea.KeyBackspace, tea.KeyDelete:
		if text == "" {
			return false
		}
		_, size := utf8.DecodeLastRuneInString(text)
		text = text[:len(text)-size]
	default:
		return false
	}

	if text == "" {
		l.ResetFilter()
	} else {
		l.SetFilterText(text)
	}
	return true
}

func (m appModel) isLoadingState() bool {
	_, ok := loadingTitles[m.state]
	return ok
}

func (m appModel) loadingView() string {
	title, ok := loadingTitles[m.state]
	if !ok {
		title = "Loading"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to the cinema API..."))
}

// errorRecoveryView is shown when a day has no screenings.
func (m appModel) errorRecoveryView() string {
	nextDate := truncateDate(m.date.AddDate(0, 0, 1))
	action := func(key, text string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, keyChipStyle.Render(key), "  ", lipgloss.NewStyle().Bold(true).Render(text))
	}

	lines := []string{
		chipStyle.Render("No Schedules"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true).
			Render(fmt.Sprintf("Nothing is playing on %s.", m.date.Format(time.DateOnly))),
		hint("Press ENTER to try the next day, or CTRL+D to pick another date."),
		action("ENTER", "Try "+nextDate.Format(time.DateOnly)),
		action("CTRL+D", "Pick any other date"),
		hint("ESC back • CTRL+C quit"),
	}

	style := panelStyle
	if m.width > 56 {
		style = style.Width(min(84, m.width-8))
	}
	panel := style.Render(strings.Join(lines, "\n\n"))
	if m.width > 0 {
		panel = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, panel)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(panel)
}
