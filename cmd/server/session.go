package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/imageio"
)

// serveSessions accepts connections from l until it is closed and serves
// each on its own goroutine.
func (s *fractalServer) serveSessions(ctx context.Context, l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		log.Printf("got websocket connection from: %s", conn.RemoteAddr())
		go s.serveSession(ctx, conn)
	}
}

// serveSession answers requests one at a time until the client hangs up.
func (s *fractalServer) serveSession(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req mandel.WebSocketRequest
		if err := dec.Decode(&req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("session %s: read: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp := s.answer(ctx, req)
		if err := enc.Encode(resp); err != nil {
			log.Printf("session %s: write: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *fractalServer) answer(ctx context.Context, req mandel.WebSocketRequest) mandel.WebSocketResponse {
	switch req.Command {
	case mandel.CommandGetHeight:
		p, err := s.admit(req.Request)
		if err != nil {
			return mandel.WebSocketResponse{Error: err.Error()}
		}
		return mandel.WebSocketResponse{Width: p.Width, Height: p.Height}

	case mandel.CommandRender:
		res, err := s.render(ctx, req.Request)
		if err != nil {
			return mandel.WebSocketResponse{Error: err.Error()}
		}
		pixels, err := imageio.CompressRGB(res.Image)
		if err != nil {
			return mandel.WebSocketResponse{Error: err.Error()}
		}
		return mandel.WebSocketResponse{
			Width:      res.Image.Width,
			Height:     res.Image.Height,
			DurationMs: res.Duration.Milliseconds(),
			Pixels:     pixels,
		}

	default:
		return mandel.WebSocketResponse{Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}
