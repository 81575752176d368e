package main

import (
	"context"
	"fmt"
	"log"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/imageio"
)

// renderRemote asks the server at url for the image and unpacks the reply.
func renderRemote(ctx context.Context, url string, req mandel.Request) (*mandel.ImageBuffer, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer c.CloseNow()
	c.SetReadLimit(-1)

	resp, err := roundTrip(ctx, c, mandel.CommandGetHeight, req)
	if err != nil {
		return nil, err
	}
	log.Printf("server renders %dx%d", resp.Width, resp.Height)

	resp, err = roundTrip(ctx, c, mandel.CommandRender, req)
	if err != nil {
		return nil, err
	}
	img, err := imageio.DecompressRGB(resp.Pixels, resp.Width, resp.Height)
	if err != nil {
		return nil, err
	}
	log.Printf("server computed the image in %dms", resp.DurationMs)

	c.Close(websocket.StatusNormalClosure, "")
	return img, nil
}

func roundTrip(ctx context.Context, c *websocket.Conn, cmd mandel.Command, req mandel.Request) (mandel.WebSocketResponse, error) {
	if err := wsjson.Write(ctx, c, mandel.WebSocketRequest{Command: cmd, Request: req}); err != nil {
		return mandel.WebSocketResponse{}, fmt.Errorf("send %s: %w", cmd, err)
	}
	var resp mandel.WebSocketResponse
	if err := wsjson.Read(ctx, c, &resp); err != nil {
		return mandel.WebSocketResponse{}, fmt.Errorf("read %s reply: %w", cmd, err)
	}
	if resp.Error != "" {
		return mandel.WebSocketResponse{}, fmt.Errorf("%s: %s", cmd, resp.Error)
	}
	return resp, nil
}
