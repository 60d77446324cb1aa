// Package rapidtest runs tests against a started rapid application.
//
// Example:
//
//	func TestUsers(t *testing.T) {
//	    rapidtest.Run(t, newApp, func(t *testing.T, app *rapid.App, c *rapidtest.Client) {
//	        resp, err := c.Get("/api/users")
//	        require.NoError(t, err)
//	        defer resp.Body.Close()
//	        require.Equal(t, http.StatusOK, resp.StatusCode)
//	    })
//	}
package rapidtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid"
)

// StopTimeout bounds the teardown of the application under test.
const StopTimeout = 10 * time.Second

// Client sends requests to the application under test.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	header     http.Header
}

// Run builds an App with newApp in the test environment, starts it and
// calls fn with a client bound to its webserver. The App is always
// stopped, whether fn passes, fails or panics.
//
// The RAPID_ENV variable is set to "test" for the duration of t, so Run
// cannot be used from parallel tests.
func Run(t *testing.T, newApp rapid.AppFactory, fn func(t *testing.T, app *rapid.App, c *Client)) {
	t.Helper()
	t.Setenv(rapid.EnvVar, string(rapid.EnvTest))

	app := newApp()
	require.NotNil(t, app, "app factory returned nil")

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
		defer cancel()
		_ = app.Stop(ctx)
	}()

	require.NoError(t, app.Start(t.Context()))

	fn(t, app, NewClient(app))
}

// NewClient returns a client for the webserver of a started app.
// The base URL is empty when the app has no webserver.
func NewClient(app *rapid.App) *Client {
	c := &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		header:     make(http.Header),
	}
	if ws := app.Webserver(); ws != nil && ws.Port() > 0 {
		c.BaseURL = "http://127.0.0.1:" + strconv.Itoa(ws.Port())
	}
	return c
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// SetHeader sets a header sent with every request.
func (c *Client) SetHeader(key, value string) *Client {
	c.header.Set(key, value)
	return c
}

// SetToken sends token as the Authorization header of every request.
// A missing "Bearer " prefix is added.
func (c *Client) SetToken(token string) *Client {
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	return c.SetHeader("Authorization", token)
}

// Do sends req with the default headers.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, v := range c.header {
		if req.Header.Get(k) == "" {
			req.Header[k] = v
		}
	}
	return c.HTTPClient.Do(req)
}

// Request sends a request with an optional JSON body.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(req)
}

// Get sends a GET request.
func (c *Client) Get(path string) (*http.Response, error) {
	return c.Request(context.Background(), http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(path string, body any) (*http.Response, error) {
	return c.Request(context.Background(), http.MethodPost, path, body)
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(path string, body any) (*http.Response, error) {
	return c.Request(context.Background(), http.MethodPut, path, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(path string) (*http.Response, error) {
	return c.Request(context.Background(), http.MethodDelete, path, nil)
}

// DecodeJSON reads and closes the response body into v.
func DecodeJSON(t testing.TB, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
