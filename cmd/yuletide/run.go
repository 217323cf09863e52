package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/config"
	"github.com/ayusman/yuletide/internal/particle"
	"github.com/ayusman/yuletide/internal/render"
	"github.com/ayusman/yuletide/internal/scene"
	yulesignal "github.com/ayusman/yuletide/internal/signal"
	"github.com/ayusman/yuletide/internal/server"
	"github.com/ayusman/yuletide/internal/store"
	"github.com/ayusman/yuletide/internal/tray"
)

func runApp(cmd *cobra.Command, args []string) error {
	fmt.Println("Yuletide - gesture-controlled particle tree")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	dataDir, err := cfg.DataPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	pluginDir, err := cfg.PluginPath()
	if err != nil {
		return err
	}

	application := app.New(app.Config{
		Store:           st,
		PluginDir:       pluginDir,
		Camera:          cfg.Camera,
		Detector:        cfg.Detector,
		MotionGate:      cfg.Motion.Enabled,
		MotionThreshold: cfg.Motion.Threshold,
	})
	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Failed to discover plugins in %s: %v", pluginDir, err)
	}

	enabled, err := st.Settings().Bool(store.KeyGestureEnabled, true)
	if err != nil {
		log.Printf("Failed to read gesture setting: %v", err)
	}
	application.SetEnabled(enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start detection: %w", err)
	}
	defer application.Stop()

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(dataDir)
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       application,
	})

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.Run(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	headless := !cfg.Window.Enabled
	if !headless {
		field := particle.NewField(cfg.Particles.Counts, cfg.Particles.Seed)
		log.Printf("Particle layout seed %d (%d instances)", field.Seed(), field.Len())

		err := render.Run("Yuletide", render.Options{
			Width:      cfg.Window.Width,
			Height:     cfg.Window.Height,
			Controller: application.Controller(),
			Field:      field,
			Samples:    application.Classifier().Latest,
			Status:     application.Status,
			Done:       ctx.Done(),
		})
		if err != nil {
			log.Printf("Window unavailable, continuing headless: %v", err)
			headless = true
		} else {
			// Closing the window quits.
			stop()
		}
	}

	if headless {
		if withTray {
			runTray(ctx, stop, application, st, cfg.Server.Addr)
		} else {
			<-ctx.Done()
		}
	}

	stop()
	<-serverDone
	fmt.Println("Shutting down")
	return nil
}

// applyRunFlags overlays explicitly set flags on the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("camera") {
		cfg.Camera.Device = device
	}
	if noWindow {
		cfg.Window.Enabled = false
	}
	if flags.Changed("seed") {
		cfg.Particles.Seed = seed
	}
}

// runTray shows the tray menu on the calling goroutine until ctx ends or Quit is clicked.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, st *store.Store, listenAddr string) {
	t := tray.New()
	t.SetMode(string(a.Controller().State()))
	t.SetStatus(string(a.Status()))
	t.SetGestureEnabled(a.IsEnabled())

	t.OnToggleMode(func() { a.Controller().Toggle() })
	t.OnToggleGesture(func(enabled bool) {
		a.SetEnabled(enabled)
		if err := st.Settings().SetBool(store.KeyGestureEnabled, enabled); err != nil {
			log.Printf("Failed to persist gesture setting: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(browserURL(listenAddr)); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(func() { stop() })

	cancelMode := a.Controller().States().Subscribe(func(c yulesignal.Change[scene.State]) {
		t.SetMode(string(c.New))
	})
	defer cancelMode()
	cancelStatus := a.Statuses().Subscribe(func(c yulesignal.Change[app.Status]) {
		t.SetStatus(string(c.New))
	})
	defer cancelStatus()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// browserURL turns a listen address such as ":8080" into a local URL.
func browserURL(listenAddr string) string {
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and the web directory under dataDir.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
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

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
