package psql

import (
	"context"
	"fmt"

	"ziggie/ziggie/config"
	"ziggie/ziggie/sources/psql/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database bundles the two Postgres handles: gorm owns the schema and the
// session/lead DAOs, the pgx pool serves the message DAO's raw queries.
type Database struct {
	Gorm *gorm.DB
	Pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Auto-migrate models (automatic schema creation)
	err = db.WithContext(ctx).AutoMigrate(
		&models.Session{},
		&models.Message{},
		&models.Lead{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MinConns = cfg.DBPoolMin
	poolCfg.MaxConns = cfg.DBPoolMax

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{Gorm: db, Pool: pool}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *Database) Close() {
	db.Pool.Close()
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
