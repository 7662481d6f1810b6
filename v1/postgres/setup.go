package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres is a wrapper around gorm.DB that provides connection monitoring,
// automatic reconnection, and the statement-level operations behind database.Client.
//
// Concurrency: the active `*gorm.DB` pointer is stored in an atomic pointer and can be
// swapped during reconnection without blocking readers.
type Postgres struct {
	cfg             Config
	logger          Logger
	client          atomic.Pointer[gorm.DB]
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	shutdownOnce *sync.Once
	closeOnce    *sync.Once
}

// NewPostgres creates a new Postgres instance with the provided configuration and Logger.
// It establishes the initial database connection and sets up the internal state
// for connection monitoring and recovery. A nil logger discards log output.
func NewPostgres(cfg Config, logger Logger) (*Postgres, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	conn, err := connectToPostgres(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}

	pg := &Postgres{
		cfg:             cfg,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
		shutdownOnce:    &sync.Once{},
		closeOnce:       &sync.Once{},
	}
	pg.client.Store(conn)
	return pg, nil
}

// connectToPostgres establishes a connection to the PostgresSQL database using the provided
// configuration. It opens the connection with GORM and configures the connection pool.
// Returns the initialized GORM DB instance or an error if the connection fails.
func connectToPostgres(postgresConfig Config, logger Logger) (*gorm.DB, error) {
	database, err := gorm.Open(
		postgres.Open(postgresConfig.DSN()),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Discard,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgresSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgresSQL database instance: %w", err)
	}

	// If config fields are not set (zero), apply package defaults.
	maxOpen := postgresConfig.ConnectionDetails.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = DefaultMaxOpenConns
	}
	maxIdle := postgresConfig.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = DefaultMaxIdleConns
	}
	maxLifetime := postgresConfig.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = DefaultConnMaxLifetime
	}

	databaseInstance.SetMaxOpenConns(maxOpen)
	databaseInstance.SetMaxIdleConns(maxIdle)
	databaseInstance.SetConnMaxLifetime(maxLifetime)

	logger.Info("[Postgres] connected", nil, map[string]interface{}{
		"host":     postgresConfig.Connection.Host,
		"database": postgresConfig.Connection.DbName,
	})

	return database, nil
}

// DB returns the current GORM connection.
// This is for cases where direct access to GORM is needed.
func (p *Postgres) DB() *gorm.DB {
	return p.client.Load()
}

// RetryConnection continuously attempts to reconnect to the PostgresSQL database when notified
// of a connection failure. It operates as a goroutine that waits for signals on retryChanSignal
// before attempting reconnection. The function respects context cancellation and shutdown signals,
// ensuring graceful termination when requested.
//
// It implements two nested loops:
// - The outer loop waits for retry signals
// - The inner loop attempts reconnection until successful
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("[Postgres] stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case err := <-p.retryChanSignal:
			p.logger.Warn("[Postgres] connection lost, reconnecting", err)
		innerLoop:
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := connectToPostgres(p.cfg, p.logger)
					if err != nil {
						p.logger.Error("[Postgres] reconnection failed", err)
						time.Sleep(time.Second)
						continue innerLoop
					}
					old := p.client.Swap(newConn)
					_ = closeGorm(old)
					p.logger.Info("[Postgres] reconnected", nil)
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection periodically checks the health of the database connection
// and triggers reconnection attempts when necessary. It runs as a goroutine that
// performs health checks at regular intervals (10 seconds) and signals the
// RetryConnection goroutine when a failure is detected.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logger.Info("[Postgres] stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := p.HealthCheck(ctx); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// HealthCheck pings the database with a timeout of 5 seconds.
// It returns nil if the database is healthy, or an error with details about the issue.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	dbConn := p.DB()
	if dbConn == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := dbConn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}

	return nil
}

// GracefulShutdown stops the monitor and retry loops and closes the connection pool.
// It is safe to call more than once.
func (p *Postgres) GracefulShutdown() error {
	p.signalShutdown()

	var closeErr error
	p.closeOnce.Do(func() {
		closeErr = closeGorm(p.DB())
	})
	return closeErr
}

func (p *Postgres) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
