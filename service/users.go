package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"cinema-ticket-cli/model"
)

func (c *Client) GetProfile(ctx context.Context) (model.User, error) {
	var user model.User
	if err := c.get(ctx, "/users/my", nil, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// UpdateProfile changes the signed-in user's name, email and, when set,
// password.
func (c *Client) UpdateProfile(ctx context.Context, in model.ProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return errors.New("name and email are required")
	}
	return c.sendJSON(ctx, http.MethodPut, "/users/my", in, nil)
}

func (c *Client) UploadAvatar(ctx context.Context, name string, contents io.Reader) error {
	if contents == nil {
		return errors.New("avatar file is required")
	}
	return c.sendMultipart(ctx, http.MethodPut, "/users/upload-avatar", nil, &formFile{field: "avatar", name: name, contents: contents}, nil)
}

func (c *Client) ListUsers(ctx context.Context, params model.ListParams) (model.Page[model.User], error) {
	var page model.Page[model.User]
	if err := c.get(ctx, "/users", pageQuery(params), &page); err != nil {
		return model.Page[model.User]{}, err
	}
	return page, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, in model.UserInput) error {
	if id <= 0 {
		return errors.New("user id is required")
	}
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), in, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.deleteByID(ctx, "/users", id)
}
