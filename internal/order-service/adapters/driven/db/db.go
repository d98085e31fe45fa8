package db

import (
	"context"
	"fmt"
	"time"

	"food-dash/internal/config"
	"food-dash/internal/mylogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	ctx   context.Context
	cfg   *config.DBconfig
	mylog mylogger.Logger
	conn  *pgxpool.Pool
}

// New initializes a connection pool. Repos share the pool, which is
// safe for concurrent use; a single pgx.Conn is not.
func New(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DB, error) {
	d := &DB{
		cfg:   dbCfg,
		ctx:   ctx,
		mylog: mylog,
	}

	if err := d.connect(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *DB) GetConn() *pgxpool.Pool {
	return d.conn
}

// Close closes the pool
func (d *DB) Close() error {
	d.conn.Close()
	return nil
}

// IsAlive pings the DB to verify it's responsive
func (d *DB) IsAlive() error {
	if d.conn == nil {
		return fmt.Errorf("DB is not initialized")
	}
	if err := d.conn.Ping(d.ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

// connect establishes the pool with retry logic
func (d *DB) connect() error {
	var lastErr error
	for i := 0; i < d.cfg.MaxRetries; i++ {
		connStr := fmt.Sprintf(
			"postgres://%v:%v@%v:%v/%v?sslmode=disable",
			d.cfg.User,
			d.cfg.Password,
			d.cfg.Host,
			d.cfg.Port,
			d.cfg.Database,
		)

		pool, err := pgxpool.New(d.ctx, connStr)
		if err == nil {
			err = pool.Ping(d.ctx)
		}
		if err != nil {
			lastErr = fmt.Errorf("failed to connect to database: %w", err)
			d.mylog.Error(fmt.Sprintf("DB connection attempt %d failed", i+1), err)

			time.Sleep(time.Second * time.Duration(i+1))
			continue
		}

		d.conn = pool
		d.mylog.Info("Successfully connected to the database")
		return nil
	}

	return fmt.Errorf("failed to connect to the database after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}
