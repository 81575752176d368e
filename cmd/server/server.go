package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/sync/errgroup"

	"github.com/marben/fractalthingi/palette"
)

type args struct {
	Config string `arg:"-c,--config,env:FRACTAL_CONFIG" help:"json config file, reloaded on change"`
	Listen string `arg:"-l,--listen" help:"listen address, overrides the config file"`
}

func (args) Description() string {
	return "fractal server: renders Mandelbrot images over http and websocket"
}

// main is the entry point for the fractal server.
func main() {
	var a args
	arg.MustParse(&a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(ctx context.Context, a args) error {
	cfg, err := LoadConfig(a.Config)
	if err != nil {
		return err
	}
	if a.Listen != "" {
		cfg.Listen = a.Listen
	}

	palettes := palette.NewSet()
	if cfg.PaletteDir != "" {
		if palettes, err = palette.LoadDir(cfg.PaletteDir); err != nil {
			return err
		}
	}

	store := newConfigStore(cfg)
	fs := newFractalServer(store, palettes)

	wsListener, httpServer := webServer(ctx, cfg, fs)

	g, ctx := errgroup.WithContext(ctx)

	if a.Config != "" {
		watcher, err := newConfigWatcher(a.Config, store)
		if err != nil {
			return err
		}
		g.Go(func() error {
			watcher.run(ctx)
			return nil
		})
	}

	// httpServer serves the static files, the rest api and the websocket endpoint
	g.Go(func() error {
		log.Printf("listening on http://%s", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return fs.serveSessions(ctx, wsListener)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down")
		wsListener.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
