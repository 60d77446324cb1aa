// Package channels holds the socket namespaces of the example application.
package channels

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/middlewares"
	"github.com/dmitrymomot/rapid/pkg/socket"
)

// ChatMessage is broadcast to every client of the chat namespace.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// Chat declares the authenticated chat namespace at /socket/chat.
// It is registered at channels/chat.channel.
func Chat(_ context.Context, app *rapid.App, sockets rapid.SocketServer) error {
	sockets.Namespace("chat").
		Use(middlewares.SocketAuth(app)).
		OnConnect(func(c *socket.Conn) error {
			return c.Emit("welcome", map[string]any{"id": c.ID()})
		}).
		On("message", func(c *socket.Conn, data json.RawMessage) error {
			var text string
			if err := json.Unmarshal(data, &text); err != nil {
				return err
			}
			from, _ := middlewares.SocketUser(c)["username"].(string)
			return c.Namespace().Emit(c.Request().Context(), "message", ChatMessage{From: from, Text: text})
		})
	return nil
}
