package community

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/restclient"
)

// User is the account record returned by the backend. Fields beyond the
// common ones are kept verbatim in Raw.
type User struct {
	Email    string          `json:"email"`
	FullName string          `json:"full_name,omitempty"`
	Country  string          `json:"country,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// SignupRequest carries the fields required to create an account
type SignupRequest struct {
	Email    string
	Password string
	FullName string
	Country  string
}

type accountRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Country  string `json:"country,omitempty"`
}

type accountResponse struct {
	User  json.RawMessage `json:"user"`
	Error string          `json:"error"`
}

// Login authenticates an existing account
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperr.ErrValidation)
	}
	return c.account(ctx, accountRequest{
		Action:   "login",
		Email:    normalizeEmail(email),
		Password: password,
	})
}

// Signup creates a new account
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperr.ErrValidation)
	}
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Country) == "" {
		return nil, fmt.Errorf("%w: full name and country are required for signup", apperr.ErrValidation)
	}
	return c.account(ctx, accountRequest{
		Action:   "signup",
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
		Country:  strings.TrimSpace(req.Country),
	})
}

func (c *Client) account(ctx context.Context, body accountRequest) (*User, error) {
	var resp accountResponse
	r, err := restclient.JSON(c.http).
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + accountPath)
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", apperr.ErrBackend, body.Action, resp.Error)
	}
	if err := restclient.Check(body.Action, r, err); err != nil {
		return nil, err
	}
	if len(resp.User) == 0 || string(resp.User) == "null" {
		return nil, fmt.Errorf("%w: %s: response carried no user", apperr.ErrBackend, body.Action)
	}

	var u User
	if err := json.Unmarshal(resp.User, &u); err != nil {
		return nil, fmt.Errorf("%w: %s: decode user: %w", apperr.ErrBackend, body.Action, err)
	}
	u.Raw = append(json.RawMessage(nil), resp.User...)
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
