package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/alfred-weather/internal/api/http"
	"github.com/i474232898/alfred-weather/internal/command"
	"github.com/i474232898/alfred-weather/internal/config"
	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/scheduler"
	"github.com/i474232898/alfred-weather/internal/settings"
	"github.com/i474232898/alfred-weather/internal/store"
	"github.com/i474232898/alfred-weather/internal/weather"
	"github.com/i474232898/alfred-weather/internal/weather/providers"
)

const usage = `usage:
  alfred-weather tell <verb> [query]
  alfred-weather do <verb> [query]
  alfred-weather serve
  alfred-weather import-icons <src> <dst>`

func main() {
	// stdout belongs to the launcher.
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	mode, args := os.Args[1], os.Args[2:]

	if mode == "import-icons" {
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		missing, err := present.ImportSet(args[0], args[1])
		if err != nil {
			log.Fatalf("failed to import icons: %v", err)
		}
		for _, name := range missing {
			log.Printf("INFO: no icon for %s", name)
		}
		return
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	d := newDispatcher(cfg)
	ctx := context.Background()

	switch mode {
	case "tell":
		verb, query := splitArgs(args)
		out := d.Tell(ctx, verb, query)
		enc := present.Encoder{BundleID: cfg.BundleID, Format: present.Format(cfg.OutputFormat)}
		if err := enc.Encode(os.Stdout, out.Items); err != nil {
			log.Fatalf("failed to write items: %v", err)
		}
	case "do":
		verb, query := splitArgs(args)
		out := d.Do(ctx, verb, query)
		fmt.Fprintln(os.Stdout, out.Message)
	case "serve":
		serve(cfg, d)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

// newDispatcher wires the command dispatcher from configuration.
func newDispatcher(cfg *config.AppConfig) *command.Dispatcher {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.HTTPRetries

	google := providers.NewGoogleClient(httpClient, cfg.GoogleAPIKey, providers.WithBackoff(backoff))
	wund := providers.NewWundergroundProvider(httpClient, "", providers.WithBackoff(backoff))

	return command.New(command.Env{
		Settings: settings.NewStore(cfg.SettingsPath(), google),
		Weather:  weather.NewService(store.NewFileCache(cfg.CachePath())),
		Locator:  google,
		Providers: func(id weather.ServiceID, apiKey string) (weather.Provider, error) {
			return providers.New(id, httpClient, apiKey, providers.WithBackoff(backoff))
		},
		Autocomplete: wund.Autocomplete,
		Icons:        present.NewIcons(os.DirFS(cfg.WorkflowDir)),
		Now:          time.Now,
	})
}

// splitArgs separates the verb from the rest of the command line. The
// launcher passes the query as one argument, a shell may split it.
func splitArgs(args []string) (string, string) {
	if len(args) == 0 {
		return "", ""
	}
	return args[0], strings.TrimSpace(strings.Join(args[1:], " "))
}

func serve(cfg *config.AppConfig, d *command.Dispatcher) {
	// Scheduler that keeps the forecast cache warm.
	sched := scheduler.New(cfg.RefreshInterval, d.Refresh)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "alfred-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New(logger.Config{Output: os.Stderr}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "alfred-weather",
		})
	})

	httpapi.RegisterRoutes(app, d)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
