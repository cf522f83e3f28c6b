package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pulse-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store is the durable reservation/presence backend on Postgres.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductSnapshot retrieves the stock facts for a product. Returns nil
// when the product does not exist.
func (s *Store) GetProductSnapshot(ctx context.Context, productID string) (*models.ProductSnapshot, error) {
	var snap models.ProductSnapshot
	err := s.db.GetContext(ctx, &snap, `
		SELECT
			id AS product_id,
			active,
			stock,
			min_purchase,
			is_closeout,
			restock_time,
			delivery_time_id IS NOT NULL AS has_delivery_time,
			release_date
		FROM products
		WHERE id = $1`, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
