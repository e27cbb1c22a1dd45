//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"coalseq/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveTreeSequence(ctx context.Context, id string, c model.Container) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	numRecords := c.Records.Len()
	if numRecords < 0 {
		return errors.New("record columns have mismatched lengths")
	}
	parameters, err := EncodeParameters(c.Parameters)
	if err != nil {
		return err
	}
	environment, err := EncodeEnvironment(c.Environment)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tree_sequences (id, file_version, library_version, parameters, environment)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_version = excluded.file_version,
			library_version = excluded.library_version,
			parameters = excluded.parameters,
			environment = excluded.environment
	`, id, c.FileVersion, c.LibraryVersion, parameters, environment)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM breakpoints WHERE seq_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE seq_id = ?`, id); err != nil {
		return err
	}
	for j, locus := range c.Breakpoints {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO breakpoints (seq_id, position, locus) VALUES (?, ?, ?)
		`, id, j, locus)
		if err != nil {
			return err
		}
	}
	for j := 0; j < numRecords; j++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (seq_id, position, "left", "right", child_a, child_b, parent, time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, j, c.Records.Left[j], c.Records.Right[j],
			c.Records.Children[j][0], c.Records.Children[j][1],
			c.Records.Parent[j], c.Records.Time[j])
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetTreeSequence(ctx context.Context, id string) (model.Container, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Container{}, false, err
	}

	var c model.Container
	var parameters, environment string
	err = db.QueryRowContext(ctx, `
		SELECT file_version, library_version, parameters, environment
		FROM tree_sequences WHERE id = ?
	`, id).Scan(&c.FileVersion, &c.LibraryVersion, &parameters, &environment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Container{}, false, nil
		}
		return model.Container{}, false, err
	}
	if c.Parameters, err = DecodeParameters(parameters); err != nil {
		return model.Container{}, false, fmt.Errorf("tree sequence %s: %w", id, err)
	}
	if c.Environment, err = DecodeEnvironment(environment); err != nil {
		return model.Container{}, false, fmt.Errorf("tree sequence %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT locus FROM breakpoints WHERE seq_id = ? ORDER BY position
	`, id)
	if err != nil {
		return model.Container{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var locus uint32
		if err := rows.Scan(&locus); err != nil {
			return model.Container{}, false, err
		}
		c.Breakpoints = append(c.Breakpoints, locus)
	}
	if err := rows.Err(); err != nil {
		return model.Container{}, false, err
	}

	recordRows, err := db.QueryContext(ctx, `
		SELECT "left", "right", child_a, child_b, parent, time
		FROM records WHERE seq_id = ? ORDER BY position
	`, id)
	if err != nil {
		return model.Container{}, false, err
	}
	defer recordRows.Close()
	for recordRows.Next() {
		var left, right, childA, childB, parent uint32
		var t float64
		if err := recordRows.Scan(&left, &right, &childA, &childB, &parent, &t); err != nil {
			return model.Container{}, false, err
		}
		c.Records.Left = append(c.Records.Left, left)
		c.Records.Right = append(c.Records.Right, right)
		c.Records.Children = append(c.Records.Children, [2]uint32{childA, childB})
		c.Records.Parent = append(c.Records.Parent, parent)
		c.Records.Time = append(c.Records.Time, t)
	}
	if err := recordRows.Err(); err != nil {
		return model.Container{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) ListTreeSequences(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id FROM tree_sequences ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tree_sequences (
			id TEXT PRIMARY KEY,
			file_version TEXT NOT NULL,
			library_version TEXT NOT NULL,
			parameters TEXT NOT NULL,
			environment TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS breakpoints (
			seq_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			locus INTEGER NOT NULL,
			PRIMARY KEY (seq_id, position)
		);
		CREATE TABLE IF NOT EXISTS records (
			seq_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			"left" INTEGER NOT NULL,
			"right" INTEGER NOT NULL,
			child_a INTEGER NOT NULL,
			child_b INTEGER NOT NULL,
			parent INTEGER NOT NULL,
			time REAL NOT NULL,
			PRIMARY KEY (seq_id, position)
		);
	`)
	return err
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
