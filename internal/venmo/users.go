package venmo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tally-dev/tally/internal/model"
)

// ErrUserNotFound is returned when no user has exactly the given username.
var ErrUserNotFound = errors.New("user not found")

// Me returns the signed-in user and their balance.
func (c *Client) Me(ctx context.Context) (model.Profile, error) {
	p, err := getRecord[model.Profile](ctx, c, request{method: http.MethodGet, path: "/me", authed: true})
	if err != nil {
		return model.Profile{}, fmt.Errorf("fetching profile: %w", err)
	}
	return p, nil
}

// Balance returns the signed-in user's account balance.
func (c *Client) Balance(ctx context.Context) (model.Amount, error) {
	p, err := c.Me(ctx)
	if err != nil {
		return model.Amount{}, err
	}
	return p.Balance, nil
}

// LookupUser resolves a username, with or without a leading @, to a user.
// The search is fuzzy upstream; only an exact, case-insensitive match is
// accepted.
func (c *Client) LookupUser(ctx context.Context, username string) (model.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return model.User{}, fmt.Errorf("%w: empty username", ErrUserNotFound)
	}

	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/users",
		query:  url.Values{"query": {username}},
		authed: true,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("looking up %s: %w", username, err)
	}
	env, err := decodeEnvelope("/users", resp.body)
	if err != nil {
		return model.User{}, err
	}
	users, err := model.ParseList[model.User](env.Data)
	if err != nil {
		return model.User{}, fmt.Errorf("parsing /users response: %w", err)
	}

	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}
