// Package socket is a namespaced WebSocket server built on
// [github.com/gorilla/websocket].
//
// Clients connect to <path>/<namespace> and exchange JSON frames of the form
// {"event": "...", "data": ...}. Namespaces ("channels") carry their own
// handshake middleware, connect handlers and event handlers:
//
//	srv := socket.NewServer(socket.Config{Path: "/socket"})
//	chat := srv.Namespace("chat")
//	chat.Use(func(c *socket.Conn) error {
//	    token := c.Request().URL.Query().Get("authToken")
//	    if token == "" {
//	        return socket.ErrUnauthorized
//	    }
//	    return nil
//	})
//	chat.On("message", func(c *socket.Conn, data json.RawMessage) error {
//	    return c.Namespace().Emit(c.Request().Context(), "message", data)
//	})
//
// Start mounts the server on the application webserver. With a [Broker]
// configured, Namespace.Emit reaches clients of every instance;
// [RedisBroker] uses Redis pub/sub for that.
package socket
