package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinema-ticket-cli/model"
	"cinema-ticket-cli/store"
)

func newLoginInputs() (textinput.Model, textinput.Model) {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 120

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 120
	return email, password
}

// openLogin shows the login form. After a successful login the app moves to
// returnTo; esc goes to back.
func (m *appModel) openLogin(returnTo, back appState, notice string) {
	m.loginReturn = returnTo
	m.loginBack = back
	m.loginErr = ""
	m.notice = notice
	m.loginFocus = 0
	m.passwordInput.SetValue("")
	m.passwordInput.Blur()
	m.emailInput.Focus()
	if m.user.Email != "" && m.emailInput.Value() == "" {
		m.emailInput.SetValue(m.user.Email)
	}
	m.state = stateLogin
}

// sessionExpired handles a 401: the client already emptied the session slot,
// so the local view of the user is dropped too.
func (m appModel) sessionExpired(returnTo appState) (appModel, tea.Cmd) {
	m.loggedIn = false
	back := stateSelectMovie
	if returnTo == stateCheckout || returnTo == stateOrderDetail {
		back = returnTo
	}
	m.log.WithField("return_state", int(returnTo)).Warn("session expired")
	m.openLogin(returnTo, back, sessionExpiredNotice)
	return m, textinput.Blink
}

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.emailInput.Blur()
		m.passwordInput.Blur()
		m.loginErr = ""
		m.state = m.loginBack
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.setLoginFocus(1 - m.loginFocus)
		return m, textinput.Blink
	case "enter":
		if m.loginFocus == 0 {
			m.setLoginFocus(1)
			return m, textinput.Blink
		}
		email := strings.TrimSpace(m.emailInput.Value())
		password := m.passwordInput.Value()
		if email == "" || password == "" {
			m.loginErr = "Email and password are required."
			return m, nil
		}
		m.loginErr = ""
		m.state = stateSubmitting
		return m, tea.Batch(m.loginCmd(email, password), m.spinner.Tick)
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *appModel) setLoginFocus(focus int) {
	m.loginFocus = focus
	if focus == 0 {
		m.passwordInput.Blur()
		m.emailInput.Focus()
		return
	}
	m.emailInput.Blur()
	m.passwordInput.Focus()
}

func (m appModel) completeLogin(result model.LoginResult) (tea.Model, tea.Cmd) {
	if m.sessions != nil {
		if err := m.sessions.Save(store.Session{Token: result.Token, User: result.User}); err != nil {
			m.log.WithError(err).Error("save session")
			m.loginErr = "Logged in, but the session could not be saved: " + err.Error()
			m.state = stateLogin
			return m, nil
		}
	}
	m.user = result.User
	m.loggedIn = true
	m.passwordInput.SetValue("")
	m.emailInput.Blur()
	m.passwordInput.Blur()
	m.loginErr = ""
	m.notice = ""
	m.log.WithField("user_id", result.User.Id).Info("logged in")

	switch m.loginReturn {
	case stateOrders:
		m.state = stateLoadingOrders
		return m, tea.Batch(m.fetchOrdersCmd(), m.spinner.Tick)
	case stateLoadingSchedules, stateError:
		m.state = stateLoadingSchedules
		return m, tea.Batch(m.fetchSchedulesCmd(m.date, false), m.spinner.Tick)
	}
	m.state = m.loginReturn
	return m, nil
}

func (m appModel) loginView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Log in"))
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(m.emailInput.View())
	b.WriteString("\n")
	b.WriteString(m.passwordInput.View())
	b.WriteString("\n")
	if m.loginErr != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.loginErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hint("No account yet? Run `cinema register` first."))
	return b.String()
}

func (m appModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.Login(context.Background(), email, password)
		return loginMsg{result: result, err: err}
	}
}
