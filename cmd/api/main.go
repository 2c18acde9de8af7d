package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	schema "myson/db"
	"myson/internal/auth"
	"myson/internal/db"
	"myson/internal/domain/admins"
	"myson/internal/domain/catalog"
	"myson/internal/domain/storage"
	"myson/internal/imagestore"

	"github.com/joho/godotenv"
	"github.com/speps/go-hashids/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "1.0.0"

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

func envOr(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return fallback
}

//	@title			Myson Catalog API
//	@description	Catalog-management backend: admin product/brand/category CRUD with image uploads plus a public, listed-only read surface.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	maxConns := 10
	if val := os.Getenv("DB_MAX_CONNS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
		}
		maxConns = parsed
	}

	cfg := config{
		addr:        envOr("ADDR", ":8080"),
		env:         envOr("ENV", "development"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(maxConns),
			maxIdleTime: envOr("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				accessTokenExp:  time.Hour * 24,     // 1 day
				refreshTokenExp: time.Hour * 24 * 7, // 7 days
				iss:             "myson",
			},
		},
		images: imagesConfig{
			dir:        envOr("IMAGE_DIR", "public/images"),
			publicPath: "/images",
		},
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if envOr("DB_AUTO_MIGRATE", "false") == "true" {
		if _, err := pool.Exec(context.Background(), schema.Schema); err != nil {
			logger.Fatalw("applying database schema", "error", err)
		}
		logger.Info("database schema applied")
	}

	// Storage
	store := storage.NewContainer(pool)

	// There is no registration endpoint; the first admin comes from the
	// environment. Re-running with the same username is a no-op.
	if username := os.Getenv("ADMIN_BOOTSTRAP_USERNAME"); username != "" {
		password := os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")
		if password == "" {
			logger.Fatal("ADMIN_BOOTSTRAP_USERNAME set without ADMIN_BOOTSTRAP_PASSWORD")
		}
		admin := &admins.Admin{Username: username}
		if err := admin.Password.Set(password); err != nil {
			logger.Fatal(err)
		}
		switch err := store.Admins.Create(context.Background(), admin); {
		case err == nil:
			logger.Infow("bootstrap admin created", "username", username)
		case errors.Is(err, admins.ErrDuplicateUsername):
			logger.Infow("bootstrap admin already exists", "username", username)
		default:
			logger.Fatal(err)
		}
	}

	// Image files on disk
	images, err := imagestore.NewDiskStore(cfg.images.dir, cfg.images.publicPath)
	if err != nil {
		logger.Fatal(err)
	}

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
	)

	// Short reference codes for product responses
	hd := hashids.NewData()
	hd.Salt = envOr("PRODUCT_CODE_SALT", "myson-catalog")
	hd.MinLength = 8
	codes, err := hashids.NewWithData(hd)
	if err != nil {
		logger.Fatal(err)
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		images:        images,
		lifecycle:     catalog.NewImageLifecycle(store.Catalog, images, logger),
		authenticator: jwtAuthenticator,
		codes:         codes,
	}

	// Metrics collected at /v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return pool.Stat().TotalConns()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
