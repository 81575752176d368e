package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// webServer creates the http server: static files from cfg.StaticDir, the
// REST api and the websocket endpoint. Websocket connections are handed out
// by the returned net.Listener.
func webServer(ctx context.Context, cfg Config, fs *fractalServer) (*WebsocketListener, *http.Server) {
	l := NewWSListener(ctx, cfg.Listen+"/ws")
	mux := http.NewServeMux()
	fs.routes(mux)
	mux.HandleFunc("GET /ws", websocketHandler(l, cfg.OriginPatterns))
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return l, srv
}

// websocketHandler handles the http ws endpoint.
// A successfully upgraded connection is passed to the WebsocketListener and
// the handler stays alive until the session ends, since returning would
// close the hijacked connection.
func websocketHandler(l *WebsocketListener, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Printf("websocket accept: %v", err)
			return
		}

		wc := &wsConn{Conn: c, closed: make(chan struct{})}
		select {
		case l.ch <- wc:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
		select {
		case <-wc.closed:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// wsConn signals the waiting handler once its session is done with it.
type wsConn struct {
	*websocket.Conn
	once   sync.Once
	closed chan struct{}
}

func (c *wsConn) done() {
	c.once.Do(func() { close(c.closed) })
}

// WebsocketListener implements net.Listener on top of accepted websocket
// connections. Every message is a JSON text frame.
type WebsocketListener struct {
	ch     chan *wsConn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *wsConn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return &sessionConn{
			Conn: websocket.NetConn(l.ctx, c.Conn, websocket.MessageText),
			ws:   c,
		}, nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

// sessionConn releases the http handler when the session closes its conn.
type sessionConn struct {
	net.Conn
	ws *wsConn
}

func (c *sessionConn) Close() error {
	defer c.ws.done()
	return c.Conn.Close()
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
