// Package zoom is a small client for the Zoom REST API covering user
// lookup, cloud recording listing and recording download.
package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultBaseURL is the v2 API root.
	DefaultBaseURL = "https://api.zoom.us/v2"
	// tokenLifetime keeps API tokens short lived; one is minted per request.
	tokenLifetime = 5 * time.Second
	pageSize      = 300
)

// ErrUserNotFound is returned by UserID when no user has the e-mail address.
var ErrUserNotFound = errors.New("zoom user not found")

// RequestError is a non-200 answer from Zoom.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("zoom %s %s failed: %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to the Zoom API with JWT app credentials.
type Client struct {
	baseURL string
	iss     string
	secret  []byte
	http    *http.Client
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a client that signs requests with the API key and secret.
func NewClient(iss, secret string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		iss:     iss,
		secret:  []byte(secret),
		http: &http.Client{
			// No overall timeout: downloads can take minutes.
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// token signs a short-lived HS256 JWT for the API key.
func (c *Client) token() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.iss,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign zoom token: %w", err)
	}
	return signed, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	tok, err := c.token()
	if err != nil {
		return err
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build zoom request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zoom GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return requestError(resp, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode zoom response for %s: %w", path, err)
	}
	return nil
}

func requestError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &RequestError{
		Method: resp.Request.Method,
		Path:   path,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type usersPage struct {
	Users         []user `json:"users"`
	NextPageToken string `json:"next_page_token"`
}

// UserID returns the id of the user with the given e-mail address, or of
// the first user on the account when email is empty.
func (c *Client) UserID(ctx context.Context, email string) (string, error) {
	params := url.Values{"page_size": {strconv.Itoa(pageSize)}}
	for {
		var page usersPage
		if err := c.get(ctx, "users", params, &page); err != nil {
			return "", err
		}
		for _, u := range page.Users {
			if email == "" || strings.EqualFold(u.Email, email) {
				return u.ID, nil
			}
		}
		if page.NextPageToken == "" {
			return "", fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		params.Set("next_page_token", page.NextPageToken)
	}
}

type recordingsPage struct {
	Meetings      []Meeting `json:"meetings"`
	NextPageToken string    `json:"next_page_token"`
}

// MeetingsWithRecordings lists the user's meetings with cloud recordings
// from the last days days.
func (c *Client) MeetingsWithRecordings(ctx context.Context, userID string, days int) ([]Meeting, error) {
	from := c.now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	params := url.Values{
		"from":      {from},
		"page_size": {strconv.Itoa(pageSize)},
	}
	path := "users/" + url.PathEscape(userID) + "/recordings"

	var meetings []Meeting
	for {
		var page recordingsPage
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		meetings = append(meetings, page.Meetings...)
		if page.NextPageToken == "" {
			return meetings, nil
		}
		params.Set("next_page_token", page.NextPageToken)
	}
}

// Download opens a recording file. accessToken is the webhook download
// token when there is one; otherwise an API token is used.
func (c *Client) Download(ctx context.Context, downloadURL, accessToken string) (io.ReadCloser, error) {
	if accessToken == "" {
		tok, err := c.token()
		if err != nil {
			return nil, err
		}
		accessToken = tok
	}

	u, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoom download %s: %w", u.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, requestError(resp, u.Path)
	}
	return resp.Body, nil
}
