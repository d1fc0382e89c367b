// Package auth mints the bearer credential a candidate's authenticated
// scenarios are run with.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// LoginPath is the candidate endpoint that exchanges the benchmark user's
// email and password for a token.
const LoginPath = "/api/login"

// maxErrorBody bounds how much of a failed login response is kept in
// AuthError.
const maxErrorBody = 512

// Credential is a bearer token and the subject id decoded from it.
type Credential struct {
	Token     string
	SubjectID int64
}

// AuthError reports a failed login call or a response without a token.
type AuthError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("login %s: %v", e.URL, e.Err)
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("login %s: status %d: %s", e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("login %s: status %d", e.URL, e.StatusCode)
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// Client logs the pre-registered benchmark user in.
type Client struct {
	HTTP     *http.Client
	Email    string
	Password string
	Logger   *slog.Logger
}

// NewClient creates a Client whose login calls are bounded by timeout.
func NewClient(email, password string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Email:    email,
		Password: password,
		Logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Obtain logs in against baseURL and decodes the subject id of the returned
// token. It is attempted exactly once.
func (c *Client) Obtain(ctx context.Context, baseURL string) (Credential, error) {
	url := strings.TrimRight(baseURL, "/") + LoginPath

	body, err := json.Marshal(loginRequest{Email: c.Email, Password: c.Password})
	if err != nil {
		return Credential{}, &AuthError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Credential{}, &AuthError{URL: url, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	c.Logger.DebugContext(ctx, "logging in benchmark user",
		slog.String("url", url),
		slog.String("email", c.Email),
	)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Credential{}, &AuthError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &AuthError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Credential{}, &AuthError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), maxErrorBody),
		}
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return Credential{}, &AuthError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	if lr.Token == "" {
		return Credential{}, &AuthError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("no token in response: %s", truncate(string(data), maxErrorBody)),
		}
	}

	subject, err := DecodeSubject(lr.Token)
	if err != nil {
		return Credential{}, err
	}

	c.Logger.InfoContext(ctx, "obtained bearer token",
		slog.String("url", url),
		slog.Int64("user_id", subject),
	)

	return Credential{Token: lr.Token, SubjectID: subject}, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
