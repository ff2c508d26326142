// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"conduit/internal/config"
	"conduit/internal/middleware"
	"conduit/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global primary connection instance.
var DB *gorm.DB

// ReadDB is the optional read replica connection.
var ReadDB *gorm.DB

// CustomGormLogger integrates GORM with slog
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger returns a slog-backed GORM logger at warn level with a 200ms slow threshold.
func NewGormLogger() *CustomGormLogger {
	return &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs trace-level information including SQL queries and execution time.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && (!errors.Is(err, gorm.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// ConnectOptions tune Connect.
type ConnectOptions struct {
	// SkipSchema leaves the schema untouched; the migrate command manages it itself.
	SkipSchema bool
}

// Connect opens the primary connection, applies the schema policy and
// returns the gorm DB instance.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{})
}

// ConnectWithOptions is Connect with explicit options.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	dialector, err := primaryDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	middleware.Logger.Info("Database connected successfully", slog.String("driver", cfg.DBDriver))

	if !opts.SkipSchema {
		if err := ApplySchema(context.Background(), db, cfg); err != nil {
			return nil, err
		}
	}

	DB = db
	return DB, nil
}

// ConnectReadReplica opens DB_READ_HOST when configured. It returns nil, nil
// when no replica is configured; callers then read from the primary.
func ConnectReadReplica(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDriver != "postgres" || cfg.DBReadHost == "" {
		ReadDB = nil
		return nil, nil
	}

	port := cfg.DBReadPort
	if port == "" {
		port = cfg.DBPort
	}
	db, err := open(postgres.Open(postgresDSN(cfg, cfg.DBReadHost, port)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to read replica: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	middleware.Logger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
	ReadDB = db
	return ReadDB, nil
}

// GetReadDB returns the read replica, falling back to the primary.
func GetReadDB() *gorm.DB {
	if ReadDB != nil {
		return ReadDB
	}
	return DB
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", startQueryTimer); err != nil {
		return nil, err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", observeQuery("select")); err != nil {
		return nil, err
	}
	return db, nil
}

const queryStartKey = "metrics:query_start"

func startQueryTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

func primaryDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "postgres":
		return postgres.Open(postgresDSN(cfg, cfg.DBHost, cfg.DBPort)), nil
	case "sqlite":
		path := cfg.DBSQLitePath
		if path == "" {
			path = "conduit.db"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func postgresDSN(cfg *config.Config, host, port string) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		port,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	// A sqlite file tolerates one writer; serialize access.
	if cfg.DBDriver == "sqlite" {
		maxOpen, maxIdle = 1, 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}
