// Package database provides database connectivity, models, and the catalog
// store for the eng-lib service.
package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Database represents the main database interface for the application
type Database struct {
	conn    *Connection
	catalog *CatalogStore
	config  *Config
}

// New creates a new database instance with all components
func New(config *Config) (*Database, error) {
	conn, err := NewConnection(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	return &Database{
		conn:    conn,
		catalog: NewCatalogStore(conn.DB()),
		config:  config,
	}, nil
}

// Connect verifies database connectivity
func (db *Database) Connect(ctx context.Context) error {
	if err := db.conn.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	return nil
}

// Close closes all database connections
func (db *Database) Close() error {
	return db.conn.Close()
}

// DB returns the underlying GORM database instance
func (db *Database) DB() *gorm.DB {
	return db.conn.DB()
}

// Catalog returns the catalog store
func (db *Database) Catalog() *CatalogStore {
	return db.catalog
}

// HealthCheck performs a comprehensive health check
func (db *Database) HealthCheck(ctx context.Context) error {
	return db.conn.HealthCheck(ctx)
}

// GetStats returns database statistics
func (db *Database) GetStats() (map[string]interface{}, error) {
	return db.conn.GetStats()
}
