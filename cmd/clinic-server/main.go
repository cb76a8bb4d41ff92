package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/config"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/activity"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/appointment"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/chat"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/directory"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/holiday"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/schedule"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/domain/slotgen"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/db"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/lock"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/metrics"
	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/middleware"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

const version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment booking API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// database is what the app needs from a pool: queries, transactions and a
// health ping. *pgxpool.Pool and pgxmock pools both satisfy it.
type database interface {
	db.DB
	db.Pinger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (database, func(), error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		TimeZone: cfg.Timezone,
	})
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// newLocker returns a Redis-backed locker when REDIS_URL is set so that
// several replicas never generate concurrently.
func newLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewLocalLocker(), func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, logger), func() { _ = client.Close() }, nil
}

type app struct {
	echo   *echo.Echo
	runner *slotgen.Runner
}

func newApp(cfg *config.Config, pool database, locker lock.Locker, reg *prometheus.Registry, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	runTx := db.NewRunner(pool)

	directorySvc := directory.NewService(
		directory.NewClinicRepoPG(pool),
		directory.NewDoctorRepoPG(pool),
		directory.NewServiceRepoPG(pool),
		directory.NewInsuranceRepoPG(pool),
	)
	scheduleSvc := schedule.NewService(schedule.NewRepoPG(pool), runTx)
	holidaySvc := holiday.NewService(holiday.NewRepoPG(pool))
	slotRepo := appointment.NewSlotRepoPG(pool)
	appointmentSvc := appointment.NewService(slotRepo, appointment.NewBookingRepoPG(pool), runTx)
	chatSvc := chat.NewService(chat.NewRepoPG(pool))
	activityRepo := activity.NewRepoPG(pool)

	genMetrics := metrics.NewGeneratorMetrics(reg)
	gen := slotgen.NewGenerator(scheduleSvc, holidaySvc, slotRepo, runTx, loc, logger, genMetrics)
	runner := slotgen.NewRunner(gen, locker, slotgen.RunnerConfig{
		Interval:   cfg.SlotGenInterval,
		WindowDays: cfg.SlotGenWindowDays,
		RunOnStart: cfg.SlotGenRunOnStart,
		LockTTL:    cfg.SlotGenLockTTL,
	}, loc, logger, genMetrics)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(60 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
	}
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}
	apiV1.Use(middleware.Activity(logger, activity.NewRecorder(activityRepo)))

	directory.NewHandler(directorySvc).RegisterRoutes(apiV1)
	schedule.NewHandler(scheduleSvc).RegisterRoutes(apiV1)
	holiday.NewHandler(holidaySvc, loc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	slotgen.NewHandler(runner).RegisterRoutes(apiV1)
	chat.NewHandler(chatSvc).RegisterRoutes(apiV1)
	activity.NewHandler(activityRepo).RegisterRoutes(apiV1)

	return &app{echo: e, runner: runner}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the slot generation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, closePool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer closePool()
	logger.Info().Msg("connected to database")

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeLocker()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(cfg, pool, locker, reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	schedCtx, schedCancel := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	if cfg.SlotGenEnabled {
		go func() {
			defer close(schedDone)
			a.runner.Start(schedCtx)
		}()
	} else {
		close(schedDone)
		logger.Info().Msg("slot generation scheduler disabled")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	schedCancel()
	<-schedDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := cmd.Context()
			pool, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := cmd.Context()
			pool, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Appointment slot maintenance",
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate slots for a window now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)

			from, _ := cmd.Flags().GetString("from")
			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				days = cfg.SlotGenWindowDays
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()
			locker, closeLocker, err := newLocker(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeLocker()

			a, err := newApp(cfg, pool, locker, prometheus.NewRegistry(), logger)
			if err != nil {
				return err
			}
			return generateSlots(ctx, cmd, a.runner, from, days)
		},
	}
	generateCmd.Flags().String("from", "", "First day of the window (YYYY-MM-DD, defaults to today)")
	generateCmd.Flags().Int("days", 0, "Window length in days (defaults to SLOTGEN_WINDOW_DAYS)")
	cmd.AddCommand(generateCmd)

	return cmd
}

// generateSlots runs one manual generation and prints its report. The
// report is printed for failed runs too, with the count committed so far.
func generateSlots(ctx context.Context, cmd *cobra.Command, runner *slotgen.Runner, from string, days int) error {
	start := runner.Today()
	if from != "" {
		d, err := timeofday.ParseDate(from, start.Location())
		if err != nil {
			return err
		}
		start = d
	}

	report, runErr := runner.Run(ctx, start, days, slotgen.TriggerManual)
	if errors.Is(runErr, slotgen.ErrRunInProgress) {
		return runErr
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("slot generation failed after creating %d slot(s): %w", report.Created, runErr)
	}
	return nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token utilities",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token with AUTH_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sub, _ := cmd.Flags().GetString("sub")
			roles, _ := cmd.Flags().GetStringSlice("role")
			clinic, _ := cmd.Flags().GetString("clinic")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := auth.IssueToken(auth.JWTConfig{
				Issuer:     cfg.AuthIssuer,
				Audience:   cfg.AuthAudience,
				SigningKey: []byte(cfg.AuthSigningKey),
			}, sub, roles, clinic, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().String("sub", "", "Subject (user id)")
	issueCmd.Flags().StringSlice("role", nil, "Role to grant (repeatable): admin, staff, doctor, patient")
	issueCmd.Flags().String("clinic", "", "Clinic id claim")
	issueCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("sub")
	cmd.AddCommand(issueCmd)

	return cmd
}
