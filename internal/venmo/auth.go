package venmo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// AuthState is a position in the login flow.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateAwaitingSecondFactor
	StateAuthenticated
	StateLoggedOut
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingSecondFactor:
		return "awaiting-second-factor"
	case StateAuthenticated:
		return "authenticated"
	case StateLoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

var (
	// ErrNoChallenge is returned by SubmitCode when no login is waiting
	// for a one-time code.
	ErrNoChallenge = errors.New("no two-factor challenge in progress")
	// ErrInvalidCode is returned when the service rejects a one-time code
	// and further attempts remain.
	ErrInvalidCode = errors.New("invalid one-time code")
	// ErrTooManyCodeAttempts is returned when the attempt budget is spent.
	// The challenge is discarded and a new Login is required.
	ErrTooManyCodeAttempts = errors.New("too many one-time code attempts")
)

// LogoutError reports a token revocation the service did not confirm.
// Local credentials are left in place.
type LogoutError struct {
	Err error
}

func (e *LogoutError) Error() string {
	return fmt.Sprintf("logout failed: %v", e.Err)
}

func (e *LogoutError) Unwrap() error {
	return e.Err
}

const (
	headerDeviceID  = "device-id"
	headerOTPSecret = "venmo-otp-secret"
	headerOTP       = "Venmo-Otp"

	tokenPath     = "/oauth/access_token"
	twoFactorPath = "/account/two-factor/token"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// State returns the current login state.
func (c *Client) State() AuthState {
	return c.state
}

// Login exchanges a username and password for an access token. When the
// service asks for a second factor, Login requests SMS delivery of a code
// and returns StateAwaitingSecondFactor; finish with SubmitCode.
func (c *Client) Login(ctx context.Context, username, password string) (AuthState, error) {
	if c.store.IsAuthenticated() {
		c.state = StateAuthenticated
		return c.state, nil
	}

	body := map[string]string{
		"phone_email_or_username": username,
		"client_id":               "1",
		"password":                password,
	}
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   tokenPath,
		body:   body,
		header: http.Header{headerDeviceID: {c.deviceID}},
	})
	if err != nil {
		return c.state, fmt.Errorf("logging in: %w", err)
	}

	switch {
	case resp.status == http.StatusCreated:
		if err := c.persistToken(resp.body); err != nil {
			return c.state, err
		}
		c.log.Info("logged in", "user_id", c.signedInUserID())
		return c.state, nil

	case resp.status == http.StatusUnauthorized && resp.header.Get(headerOTPSecret) != "":
		secret := resp.header.Get(headerOTPSecret)
		if err := c.requestCode(ctx, secret); err != nil {
			return c.state, err
		}
		c.otpSecret = secret
		c.codeFailures = 0
		c.state = StateAwaitingSecondFactor
		c.log.Info("two-factor code requested")
		return c.state, nil

	default:
		return c.state, fmt.Errorf("logging in: %w", newAPIError(http.MethodPost, tokenPath, resp.status, resp.body))
	}
}

func (c *Client) requestCode(ctx context.Context, secret string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   twoFactorPath,
		body:   map[string]string{"via": "sms"},
		header: http.Header{
			headerDeviceID:  {c.deviceID},
			headerOTPSecret: {secret},
		},
	})
	if err != nil {
		return fmt.Errorf("requesting two-factor code: %w", err)
	}
	return nil
}

// SubmitCode completes a two-factor login. A rejected code returns
// ErrInvalidCode and leaves the challenge open until the attempt budget is
// spent, after which ErrTooManyCodeAttempts is returned and the client is
// back to StateUnauthenticated.
func (c *Client) SubmitCode(ctx context.Context, code string) error {
	if c.state != StateAwaitingSecondFactor {
		return ErrNoChallenge
	}

	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   tokenPath,
		query:  url.Values{"client_id": {"1"}},
		header: http.Header{
			headerDeviceID:  {c.deviceID},
			headerOTPSecret: {c.otpSecret},
			headerOTP:       {code},
		},
	})
	if err != nil {
		return fmt.Errorf("submitting two-factor code: %w", err)
	}

	if resp.status == http.StatusOK || resp.status == http.StatusCreated {
		if err := c.persistToken(resp.body); err != nil {
			return err
		}
		c.otpSecret = ""
		c.codeFailures = 0
		c.log.Info("logged in with two-factor code", "user_id", c.signedInUserID())
		return nil
	}

	apiErr := newAPIError(http.MethodPost, tokenPath, resp.status, resp.body)
	if resp.status >= 500 {
		return fmt.Errorf("submitting two-factor code: %w", apiErr)
	}

	c.codeFailures++
	if c.codeFailures >= c.maxCodeAttempts {
		c.otpSecret = ""
		c.codeFailures = 0
		c.state = StateUnauthenticated
		c.log.Warn("two-factor challenge abandoned", "attempts", c.maxCodeAttempts)
		return fmt.Errorf("%w: %w", ErrTooManyCodeAttempts, apiErr)
	}
	return fmt.Errorf("%w (%d attempts left): %w", ErrInvalidCode, c.maxCodeAttempts-c.codeFailures, apiErr)
}

func (c *Client) persistToken(body []byte) error {
	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decoding access token response: %w", err)
	}
	if tok.AccessToken == "" || tok.User.ID == "" {
		return errors.New("decoding access token response: missing access_token or user.id")
	}
	if err := c.store.Save(tok.User.ID, tok.AccessToken); err != nil {
		return err
	}
	c.state = StateAuthenticated
	return nil
}

// Logout revokes the access token. Credentials are deleted only when the
// service confirms with 204 No Content; any other answer is a
// *LogoutError and the client stays authenticated.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, request{method: http.MethodDelete, path: tokenPath, authed: true})
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	if resp.status != http.StatusNoContent {
		return &LogoutError{Err: newAPIError(http.MethodDelete, tokenPath, resp.status, resp.body)}
	}
	if err := c.store.Delete(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	c.state = StateLoggedOut
	c.log.Info("logged out")
	return nil
}

func (c *Client) signedInUserID() string {
	id, _ := c.store.UserID()
	return id
}
