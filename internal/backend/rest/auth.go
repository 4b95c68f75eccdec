package rest

import (
	"context"
	"errors"
	"net/http"

	"invoicer/internal/core"
)

// authResponse is {token, ...userFields}.
type authResponse struct {
	Token string `json:"token"`
	core.Profile
}

var errNoToken = errors.New("auth response carried no token")

func (c *Client) Login(ctx context.Context, cr core.Credentials) (core.AuthResult, error) {
	return c.authenticate(ctx, c.endpoint("auth", "login"), cr)
}

func (c *Client) Signup(ctx context.Context, r core.SignupRequest) (core.AuthResult, error) {
	return c.authenticate(ctx, c.endpoint("auth", "signup"), r)
}

func (c *Client) authenticate(ctx context.Context, endpoint string, body any) (core.AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return core.AuthResult{}, err
	}
	if resp.Token == "" {
		return core.AuthResult{}, errNoToken
	}
	return core.AuthResult{Token: resp.Token, Profile: resp.Profile}, nil
}

// UpdateProfile returns the stored profile. Some backend versions wrap it in
// the same {token, ...} envelope as login; the token is ignored.
func (c *Client) UpdateProfile(ctx context.Context, u core.ProfileUpdate) (core.Profile, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPut, c.endpoint("auth", "profile"), u, &resp); err != nil {
		return core.Profile{}, err
	}
	return resp.Profile, nil
}
