package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/handcount/internal/app"
	"github.com/ayusman/handcount/internal/config"
	"github.com/ayusman/handcount/internal/render"
	"github.com/ayusman/handcount/internal/server"
	"github.com/ayusman/handcount/internal/tray"
)

func main() {
	fmt.Println("handcount - Geometric Finger Counter")

	if err := run(os.Args[1:]); err != nil {
		log.Printf("handcount: %v", err)
		os.Exit(1)
	}
}

// newDisplay opens the video window. The window belongs to the goroutine
// that calls it.
var newDisplay = func(breakKey rune) app.Display {
	return render.NewWindow(breakKey)
}

// run loads the configuration and drives one session. Deferred cleanup runs
// before main decides the exit code.
func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	a, err := app.New(cfg.App())
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Addr != "" {
		hub := server.NewHub()
		defer hub.Close()
		a.AddPublisher(hub)

		staticDir := cfg.StaticDir
		if staticDir == "" {
			staticDir = findWebDir()
		}
		if staticDir != "" {
			fmt.Printf("Serving static files from: %s\n", staticDir)
		}

		srv := server.New(server.Config{StaticDir: staticDir, Hub: hub}).HTTPServer(cfg.Addr)
		go func() {
			fmt.Printf("Starting server on %s\n", cfg.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Tray {
		err = runWithTray(ctx, a, cfg)
	} else {
		err = runLoop(ctx, a, cfg)
	}
	if err != nil {
		return fmt.Errorf("session ended: %w", err)
	}
	return nil
}

// runLoop opens the display on the calling goroutine, runs the frame loop
// there and closes the display before returning.
func runLoop(ctx context.Context, a *app.App, cfg config.Config) error {
	if !cfg.Headless {
		d := newDisplay(cfg.BreakRune())
		a.SetDisplay(d)
		defer d.Close()
	}
	return a.Run(ctx)
}

// runWithTray runs the tray on the main goroutine and the frame loop beside
// it. Whichever ends first stops the other.
func runWithTray(ctx context.Context, a *app.App, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New(cfg.ShowMask)
	t.OnToggleMask(a.SetShowMask)
	t.OnOpenStream(func() {
		if cfg.Addr == "" {
			log.Println("HTTP server is disabled")
			return
		}
		log.Printf("Annotated stream: http://localhost%s/api/stream", cfg.Addr)
	})
	t.OnQuit(cancel)
	a.AddPublisher(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(ctx, a, cfg)
		t.Quit()
	}()
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handcount/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handcount", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
