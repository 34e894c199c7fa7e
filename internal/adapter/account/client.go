package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

const (
	sendOTPPath   = "/v1/otp"
	verifyOTPPath = "/v1/verify-otp"
	usersPath     = "/api/v1/users"
)

// Client implements domain.AccountStore against the account API, which
// shares the incident-data gateway.
type Client struct {
	api     *upstream.Client
	baseURL string
}

// NewClient creates an account client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		api:     upstream.New(observability.UpstreamAccounts, timeout, metrics, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

// SendOTP asks the account API to email a one-time password.
func (c *Client) SendOTP(ctx context.Context, email string) (string, error) {
	return c.postOTP(ctx, sendOTPPath, otpRequest{Email: email})
}

// VerifyOTP checks a one-time password previously sent to email.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	return c.postOTP(ctx, verifyOTPPath, otpRequest{Email: email, OTP: otp})
}

func (c *Client) postOTP(ctx context.Context, path string, payload otpRequest) (string, error) {
	var message string
	err := c.api.Do(ctx, http.MethodPost, c.baseURL+path, payload, domain.MsgServerError, func(resp upstream.Response) error {
		message = upstream.DecodeMessage(resp.Body, "message")
		if !resp.OK() {
			return domain.Rejection(resp.Status, message, domain.MsgSomethingWentWrong)
		}
		return nil
	})
	return message, err
}

// GetUser fetches the profile registered under email.
func (c *Client) GetUser(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := c.api.Do(ctx, http.MethodGet, c.userURL(email), nil, domain.MsgServerError, func(resp upstream.Response) error {
		msg := upstream.DecodeMessage(resp.Body, "message")
		switch {
		case resp.Status == http.StatusNotFound:
			return domain.NoMatch(resp.Status, msg, domain.MsgSomethingWentWrong)
		case !resp.OK():
			return domain.Rejection(resp.Status, msg, domain.MsgSomethingWentWrong)
		}
		if err := json.Unmarshal(resp.Body, &user); err != nil {
			return domain.Malformed(domain.MsgServerError, resp.Status, fmt.Errorf("decode user: %w", err))
		}
		return nil
	})
	return user, err
}

// CreateUser registers a new profile.
func (c *Client) CreateUser(ctx context.Context, user domain.User) error {
	return c.api.Do(ctx, http.MethodPost, c.baseURL+usersPath, user, domain.MsgServerError, func(resp upstream.Response) error {
		if !resp.OK() {
			return domain.Rejection(resp.Status, upstream.DecodeMessage(resp.Body, "message"), domain.MsgUserCreateFailed)
		}
		return nil
	})
}

// UpdateUser applies a partial update to the profile under email.
func (c *Client) UpdateUser(ctx context.Context, email string, patch domain.UserPatch) (string, error) {
	var message string
	err := c.api.Do(ctx, http.MethodPatch, c.userURL(email), patch, domain.MsgServerError, func(resp upstream.Response) error {
		msg := upstream.DecodeMessage(resp.Body, "message")
		if !resp.OK() {
			return domain.Rejection(resp.Status, msg, domain.MsgUserUpdateFailed)
		}
		message = pick(msg, domain.MsgUserUpdateSuccess)
		return nil
	})
	return message, err
}

// DeleteUser removes the profile under email. An empty reply body is accepted.
func (c *Client) DeleteUser(ctx context.Context, email string) (string, error) {
	var message string
	err := c.api.Do(ctx, http.MethodDelete, c.userURL(email), nil, domain.MsgServerError, func(resp upstream.Response) error {
		if !resp.OK() {
			return domain.Rejection(resp.Status, upstream.DecodeMessage(resp.Body, "message"), domain.MsgUserDeleteFailed)
		}
		message = domain.MsgUserDeleteSuccess
		return nil
	})
	return message, err
}

func (c *Client) userURL(email string) string {
	return c.baseURL + usersPath + "/" + url.PathEscape(email)
}

func pick(preferred, fallback string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return fallback
}
