package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/model"
)

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and the normalized user record.
// Storing them is the caller's job.
func (c *Client) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.LoginResult{}, errors.New("email and password are required")
	}

	var result model.LoginResult
	err := c.sendJSON(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &result)
	if err != nil {
		return model.LoginResult{}, err
	}
	if result.Token == "" || (result.User.Id == 0 && result.User.Email == "") {
		return model.LoginResult{}, errors.New("invalid login response from server")
	}
	return result, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return errors.New("name, email and password are required")
	}
	return c.sendJSON(ctx, http.MethodPost, "/auth/register", credentials{Name: name, Email: email, Password: password}, nil)
}

// Logout tells the server to revoke the token. Failures are logged and
// dropped; the local session is cleared regardless.
func (c *Client) Logout(ctx context.Context) {
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		c.log.WithError(err).Debug("logout request failed")
	}
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.log.WithError(err).Warn("clear session on logout")
		}
	}
}
