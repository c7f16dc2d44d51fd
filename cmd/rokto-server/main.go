package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rokto/rokto/internal/config"
	"github.com/rokto/rokto/internal/domain/bloodrequest"
	"github.com/rokto/rokto/internal/domain/location"
	"github.com/rokto/rokto/internal/domain/session"
	"github.com/rokto/rokto/internal/platform/backend"
	"github.com/rokto/rokto/internal/platform/db"
	"github.com/rokto/rokto/internal/platform/middleware"
	"github.com/rokto/rokto/internal/platform/notification"
	"github.com/rokto/rokto/internal/platform/telemetry"
	"github.com/rokto/rokto/migrations"
)

// divisionID is the division served by this deployment.
const divisionID = "rangpur"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rokto-server",
		Short: "Rangpur division blood donation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(locationCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd, statuses)
			return nil
		},
	})

	return cmd
}

func printMigrationStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func locationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Inspect and load the location dataset",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a dataset file and print its counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			tree, err := location.Load(cmd.Context(), datasetRepo(file))
			if err != nil {
				return err
			}
			printStats(cmd, tree)
			return nil
		},
	}
	checkCmd.Flags().String("file", "", "Dataset file (.json, .yaml, .yml); defaults to the embedded dataset")
	cmd.AddCommand(checkCmd)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a dataset into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			ctx := cmd.Context()
			tree, err := location.Load(ctx, datasetRepo(file))
			if err != nil {
				return err
			}

			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			div := tree.Division()
			if err := location.NewDivisionRepoPG(pool, div.ID).Seed(ctx, div); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			printStats(cmd, tree)
			return nil
		},
	}
	seedCmd.Flags().String("file", "", "Dataset file (.json, .yaml, .yml); defaults to the embedded dataset")
	cmd.AddCommand(seedCmd)

	return cmd
}

func datasetRepo(file string) location.DivisionRepository {
	if file == "" {
		return location.NewEmbeddedRepo()
	}
	return location.NewFileRepo(file)
}

func printStats(cmd *cobra.Command, tree *location.Tree) {
	div := tree.Division()
	st := div.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "division %s (%s): %d districts, %d thanas\n", div.ID, div.Name, st.Districts, st.Thanas)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(nil)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Database (optional unless the dataset lives there)
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
	}

	var repo location.DivisionRepository
	switch cfg.LocationSource {
	case config.LocationSourceFile:
		repo = location.NewFileRepo(cfg.LocationDataset)
	case config.LocationSourcePostgres:
		repo = location.NewDivisionRepoPG(pool, divisionID)
	default:
		repo = location.NewEmbeddedRepo()
	}
	tree, err := location.Load(ctx, repo)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.LocationSource).Msg("failed to load location dataset")
	}
	st := tree.Division().Stats()
	logger.Info().
		Str("source", cfg.LocationSource).
		Int("districts", st.Districts).
		Int("thanas", st.Thanas).
		Msg("location dataset loaded")

	var dbPinger db.Pinger
	if pool != nil {
		dbPinger = pool
	}
	e := newServer(cfg, logger, tree, dbPinger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", cfg.APIBaseURL).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires every route and middleware. dbPinger may be nil.
func newServer(cfg *config.Config, logger zerolog.Logger, tree *location.Tree, dbPinger db.Pinger) *echo.Echo {
	metrics := telemetry.New()
	client := backend.NewClient(cfg.APIBaseURL, cfg.BackendTimeout, logger, backend.WithMetrics(metrics))

	cookies := session.CookieSettings{
		Name:   cfg.SessionCookieName,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.IsProduction(),
	}
	refresher := session.NewRefresher(client, session.Options{
		Revalidate:   cfg.RefreshRevalidate,
		StrictLogout: cfg.SessionStrictLogout,
	}, logger, metrics)

	sender := notification.NewLogSender(logger, cfg.NotifyFrom)
	notifications := notification.NewDispatcher(sender, sender, notification.NewCatalog())
	submissions := bloodrequest.NewService(client, bloodrequest.NewNotifier(notifications, logger), logger, metrics)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, middleware.RequestIDHeader, "If-None-Match"},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "ETag"},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, isProbe))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	rateLimitCfg.Skipper = isProbe
	e.Use(middleware.RateLimit(rateLimitCfg))

	e.Use(session.AutoRefresh(session.AutoRefreshConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return isProbe(c) || isPublicData(p) || strings.HasPrefix(p, "/auth/")
		},
		Refresher: refresher,
		Cookie:    cookies,
		Window:    cfg.SessionRefreshWindow,
		Logger:    logger,
	}))

	// Probes
	st := tree.Division().Stats()
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"districts": st.Districts,
			"thanas":    st.Thanas,
		})
	})
	if dbPinger != nil {
		e.GET("/health/db", db.HealthHandler(dbPinger))
	}
	e.GET("/metrics", metrics.Handler())

	// Domain routes
	location.NewHandler(location.NewService(tree), metrics).
		RegisterRoutes(e.Group(locationPrefix, middleware.ETag(middleware.StaticCacheConfig())))
	bloodrequest.NewHandler(submissions, session.Token(cookies)).RegisterRoutes(e.Group("/blood-request"))
	session.NewHandler(refresher, cookies).RegisterRoutes(e.Group("/auth"))
	notification.NewHandler(notifications).RegisterRoutes(e.Group("/notifications"))

	return e
}

// locationPrefix serves the shared location dataset.
const locationPrefix = "/rangpur-division"

// isPublicData reports whether p serves data cacheable by shared caches.
// Such responses must never carry a session cookie.
func isPublicData(p string) bool {
	return p == locationPrefix || strings.HasPrefix(p, locationPrefix+"/")
}

func isProbe(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || p == "/health" || strings.HasPrefix(p, "/health/")
}
