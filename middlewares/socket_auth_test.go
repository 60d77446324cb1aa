package middlewares_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/middlewares"
	"github.com/dmitrymomot/rapid/pkg/socket"
)

func protectedSocketApp(t *testing.T) *internal.App {
	t.Helper()

	app := internal.New(t.TempDir(),
		internal.WithEnv("test"),
		internal.WithoutDatabase(),
		internal.WithConfig(map[string]any{"socket": map[string]any{"enabled": true}}),
	)
	app.AddChannels(func(_ context.Context, app *internal.App, s internal.SocketServer) error {
		s.Namespace("protected").
			Use(middlewares.SocketAuth(app)).
			On("whoami", func(c *socket.Conn, _ json.RawMessage) error {
				return c.Emit("whoami", middlewares.SocketUser(c)["username"])
			})
		return nil
	})
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	require.NoError(t, app.Start(context.Background()))
	return app
}

func TestSocketAuth(t *testing.T) {
	t.Parallel()

	app := protectedSocketApp(t)
	base := fmt.Sprintf("ws://127.0.0.1:%d/socket/protected", app.Webserver().Port())
	token := signToken(t, app, map[string]any{"username": "user"})

	dial := func(t *testing.T, rawURL string, header http.Header) (*websocket.Conn, *http.Response, error) {
		t.Helper()
		conn, resp, err := websocket.DefaultDialer.Dial(rawURL, header)
		if conn != nil {
			t.Cleanup(func() { _ = conn.Close() })
		}
		return conn, resp, err
	}

	whoami := func(t *testing.T, conn *websocket.Conn) string {
		t.Helper()
		require.NoError(t, conn.WriteJSON(socket.Message{Event: "whoami"}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var msg socket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "whoami", msg.Event)

		var name string
		require.NoError(t, json.Unmarshal(msg.Data, &name))
		return name
	}

	t.Run("token in query", func(t *testing.T) {
		t.Parallel()

		conn, _, err := dial(t, base+"?authToken="+url.QueryEscape(token), nil)
		require.NoError(t, err)
		require.Equal(t, "user", whoami(t, conn))
	})

	t.Run("token in cookie", func(t *testing.T) {
		t.Parallel()

		header := http.Header{}
		header.Set("Cookie", (&http.Cookie{Name: middlewares.DefaultAuthCookie, Value: token}).String())
		conn, _, err := dial(t, base, header)
		require.NoError(t, err)
		require.Equal(t, "user", whoami(t, conn))
	})

	t.Run("without token", func(t *testing.T) {
		t.Parallel()

		_, resp, err := dial(t, base, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()

		_, resp, err := dial(t, base+"?authToken="+url.QueryEscape("some invalid auth token"), nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
