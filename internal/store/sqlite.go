package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"sevalink/internal/constants"
	"sevalink/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS queue_records (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists the queue record in a local SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	encryptor *encryptor
	logger    *logrus.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &SQLiteStore{db: db, encryptor: enc, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the persisted queue. An absent or unreadable record decodes
// to an empty queue; the corruption is logged, never propagated.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.QueueItem, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM queue_records WHERE key = ?`,
		constants.QueueRecordKey,
	).Scan(&stored)

	if err == sql.ErrNoRows {
		return []models.QueueItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue record: %w", err)
	}

	data, err := s.encryptor.open(stored)
	if err != nil {
		s.logger.WithError(err).Warn("Queue record unreadable, starting with empty queue")
		return []models.QueueItem{}, nil
	}

	items, err := decodeQueue(data)
	if err != nil {
		s.logger.WithError(err).Warn("Queue record corrupt, starting with empty queue")
		return []models.QueueItem{}, nil
	}
	return items, nil
}

func (s *SQLiteStore) Save(ctx context.Context, items []models.QueueItem) error {
	data, err := encodeQueue(items)
	if err != nil {
		return err
	}

	stored, err := s.encryptor.seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt queue record: %w", err)
	}

	return retryableStoreOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO queue_records (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, constants.QueueRecordKey, stored)
		return err
	}, "save queue record")
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return retryableStoreOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM queue_records WHERE key = ?`,
			constants.QueueRecordKey,
		)
		return err
	}, "clear queue record")
}
