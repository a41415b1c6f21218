package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

type config struct {
	port int
	env  string
	db   struct {
		dsn                string
		name               string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	redisURL string
	smtp     struct {
		host     string
		port     int
		username string
		password string
		sender   string
		attempts int
	}
	jwt struct {
		secret string
		ttl    time.Duration
	}
	otpTTL time.Duration
	cors   struct {
		trustedOrigins []string
	}
}

type application struct {
	config config
	logger *zap.Logger
	tasks  *taskService
	auth   *authService
}

func main() {
	cfg := parseFlags()

	logger, err := newLogger(cfg.env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs a failed run and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func parseFlags() config {
	var cfg config
	flag.IntVar(&cfg.port, "port", getEnvInt("PORT", 4000), "Server Port")
	flag.StringVar(&cfg.env, "env", getEnv("APP_ENV", "development"), "Environment [development|production]")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL (postgres://) or MongoDB (mongodb://) connection string")
	flag.StringVar(&cfg.db.name, "db-name", getEnv("DB_NAME", "taskmanager"), "MongoDB database name")
	flag.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	flag.StringVar(&cfg.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL for OTP records (in memory when empty)")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", getEnvInt("SMTP_PORT", 587), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")
	flag.IntVar(&cfg.smtp.attempts, "smtp-attempts", getEnvInt("SMTP_ATTEMPTS", 1), "SMTP delivery attempts per message")

	flag.StringVar(&cfg.jwt.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	flag.DurationVar(&cfg.jwt.ttl, "jwt-ttl", 24*time.Hour, "Session token lifetime")
	flag.DurationVar(&cfg.otpTTL, "otp-ttl", 5*time.Minute, "OTP lifetime")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.cors.trustedOrigins = strings.Fields(val)
		return nil
	})
	flag.Parse()

	if len(cfg.cors.trustedOrigins) == 0 {
		cfg.cors.trustedOrigins = strings.Fields(getEnv("CORS_TRUSTED_ORIGINS", "*"))
	}
	return cfg
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config, logger *zap.Logger) error {
	if cfg.db.dsn == "" {
		return errors.New("db dsn must be provided (-db-dsn or DB_DSN)")
	}
	if cfg.jwt.secret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		cfg.jwt.secret = string(secret)
		logger.Warn("no jwt secret configured, using a random one; sessions will not survive a restart")
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("established a connection with database")

	var (
		otps        otpStore
		redisClient *redis.Client
	)
	if cfg.redisURL != "" {
		redisClient, err = openRedis(ctx, cfg.redisURL)
		if err != nil {
			store.close(ctx)
			return err
		}
		otps = newRedisOTPStore(redisClient)
		logger.Info("storing otp records in redis")
	} else {
		otps = newMemoryOTPStore()
	}

	m := newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender, cfg.smtp.attempts)
	app := &application{
		config: cfg,
		logger: logger,
		tasks:  newTaskService(store, logger),
		auth:   newAuthService(store, otps, m, newTokenManager(cfg.jwt.secret, cfg.jwt.ttl), cfg.otpTTL, logger),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("env", cfg.env), zap.Int("port", cfg.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			// drain requests before the stores they use go away
			err := srv.Shutdown(ctx)
			if cerr := store.close(ctx); cerr != nil {
				err = errors.Join(err, cerr)
			}
			if redisClient != nil {
				if cerr := redisClient.Close(); cerr != nil {
					err = errors.Join(err, cerr)
				}
			}
			return err
		},
	})

	select {
	case err := <-serveErr:
		store.close(ctx)
		return err
	case code := <-wait:
		logger.Info("server stopped", zap.Int("exit_code", code))
		if code != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", code)
		}
		return nil
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
