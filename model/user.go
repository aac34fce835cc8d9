package model

import (
	"encoding/json"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// IsAdmin reports whether the user may open the back-office commands.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UnmarshalJSON accepts both the server's user record (is_admin, full_name,
// avatar_url and their camel-case variants) and the normalized form written
// to the session file.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		Id          int       `json:"id"`
		Name        string    `json:"name"`
		FullName    string    `json:"full_name"`
		Email       string    `json:"email"`
		Phone       string    `json:"phone"`
		Role        string    `json:"role"`
		IsAdmin     *bool     `json:"is_admin"`
		IsAdminPas  *bool     `json:"IsAdmin"`
		IsAdminCaml *bool     `json:"isAdmin"`
		Avatar      string    `json:"avatar"`
		AvatarURL   string    `json:"avatar_url"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	admin := false
	for _, flag := range []*bool{raw.IsAdmin, raw.IsAdminPas, raw.IsAdminCaml} {
		if flag != nil {
			admin = *flag
			break
		}
	}

	role := raw.Role
	if role != RoleAdmin && role != RoleUser {
		role = RoleUser
		if admin {
			role = RoleAdmin
		}
	}

	name := raw.Name
	if name == "" {
		name = raw.FullName
	}
	avatar := raw.Avatar
	if avatar == "" {
		avatar = raw.AvatarURL
	}

	*u = User{
		Id:        raw.Id,
		Name:      name,
		Email:     raw.Email,
		Phone:     raw.Phone,
		Role:      role,
		Avatar:    avatar,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// UserInput is the admin-side update of a user record.
type UserInput struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	IsAdmin *bool  `json:"is_admin,omitempty"`
}
