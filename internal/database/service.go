/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.CallJournal.
var _ store.CallJournal = (*Service)(nil)

type Service struct {
	db *sql.DB
}

// busyTimeoutMs lets concurrent journal writes wait for the WAL lock
const busyTimeoutMs = 5000

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	zap.L().Info("Opening call journal", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dataSourceName(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	service := NewServiceWithDB(db)
	if err := service.open(ctx, cfg.PingTimeout); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after open error", zap.Error(closeErr))
		}
		return nil, err
	}

	zap.L().Info("Call journal ready", zap.String("file", cfg.Path))
	return service, nil
}

func validateConfig(cfg models.DatabaseConfig) error {
	switch {
	case cfg.Path == "":
		return fmt.Errorf("database path cannot be empty")
	case cfg.MaxOpenConns <= 0:
		return fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	case cfg.MaxIdleConns < 0:
		return fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	case cfg.PingTimeout <= 0:
		return fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	return nil
}

// dataSourceName enables WAL for file databases; in-memory databases keep
// the default journal mode
func dataSourceName(path string) string {
	if path == ":memory:" {
		return path
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", path, busyTimeoutMs)
}

func (s *Service) open(ctx context.Context, pingTimeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}
	if err := s.InitSchema(); err != nil {
		return fmt.Errorf("unable to initialize schema: %w", err)
	}
	return nil
}

// NewServiceWithDB wraps an already open database; call InitSchema before use
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close call journal", zap.Error(err))
	}
}

// InitSchema creates the calls table and its indexes
func (s *Service) InitSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
