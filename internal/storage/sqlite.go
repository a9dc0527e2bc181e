// Package storage persists the entity inventory in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"rustmap/internal/extractor"
	"rustmap/internal/inventory"
)

// ScanRun records one completed scan for provenance.
type ScanRun struct {
	ID         string
	Root       string
	Files      int
	StartedAt  time.Time
	FinishedAt time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			file TEXT,
			kind TEXT,
			name TEXT,
			owner TEXT,
			visibility TEXT,
			is_async INTEGER,
			is_unsafe INTEGER,
			is_const INTEGER,
			generics JSON,
			signature TEXT,
			doc TEXT,
			start_line INTEGER,
			end_line INTEGER,
			ord INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS links (
			impl_id TEXT,
			struct_id TEXT,
			target TEXT,
			PRIMARY KEY (impl_id, struct_id)
		);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			file TEXT,
			kind TEXT,
			line INTEGER,
			column INTEGER,
			message TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id TEXT PRIMARY KEY,
			root TEXT,
			files INTEGER,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(file);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the stored inventory with the given one. Previous
// entities, links and diagnostics are dropped; scan runs accumulate.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, inv *inventory.Inventory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"entities", "links", "diagnostics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, file, kind, name, owner, visibility, is_async, is_unsafe, is_const, generics, signature, doc, start_line, end_line, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range inv.Entities {
		generics, _ := json.Marshal(e.Generics)
		if _, err := stmt.Exec(e.ID, e.File, string(e.Kind), e.Name, e.Owner, e.Visibility,
			e.IsAsync, e.IsUnsafe, e.IsConst, generics, e.Signature, e.Doc,
			e.StartLine, e.EndLine, e.Order); err != nil {
			return fmt.Errorf("failed to save entity %s: %w", e.ID, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (impl_id, struct_id, target) VALUES (?, ?, ?)
		ON CONFLICT(impl_id, struct_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for _, l := range inv.Links {
		if _, err := linkStmt.Exec(l.ImplID, l.StructID, l.Target); err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
	}

	diagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics (file, kind, line, column, message) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer diagStmt.Close()

	for _, d := range inv.Diagnostics {
		if _, err := diagStmt.Exec(d.File, string(d.Diagnostic.Kind), d.Diagnostic.Line,
			d.Diagnostic.Column, d.Diagnostic.Message); err != nil {
			return fmt.Errorf("failed to save diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// LoadInventory rebuilds an inventory from the stored snapshot.
func (s *SQLiteStore) LoadInventory(ctx context.Context) (*inventory.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file, kind, name, owner, visibility, is_async, is_unsafe, is_const, generics, signature, doc, start_line, end_line, ord
		FROM entities
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*inventory.Entity
	for rows.Next() {
		var e inventory.Entity
		var kind string
		var generics []byte
		if err := rows.Scan(&e.ID, &e.File, &kind, &e.Name, &e.Owner, &e.Visibility,
			&e.IsAsync, &e.IsUnsafe, &e.IsConst, &generics, &e.Signature, &e.Doc,
			&e.StartLine, &e.EndLine, &e.Order); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Kind = inventory.EntityKind(kind)
		if len(generics) > 0 {
			_ = json.Unmarshal(generics, &e.Generics)
		}
		entities = append(entities, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := s.db.QueryContext(ctx, "SELECT impl_id, struct_id, target FROM links")
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer linkRows.Close()

	var links []inventory.Link
	for linkRows.Next() {
		var l inventory.Link
		if err := linkRows.Scan(&l.ImplID, &l.StructID, &l.Target); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}

	diagRows, err := s.db.QueryContext(ctx, "SELECT file, kind, line, column, message FROM diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer diagRows.Close()

	var diags []inventory.FileDiagnostic
	for diagRows.Next() {
		var d inventory.FileDiagnostic
		var kind string
		if err := diagRows.Scan(&d.File, &kind, &d.Diagnostic.Line, &d.Diagnostic.Column, &d.Diagnostic.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Diagnostic.Kind = extractor.DiagnosticKind(kind)
		diags = append(diags, d)
	}

	inv := inventory.New()
	inv.Restore(entities, links, diags)
	return inv, nil
}

// RecordScanRun appends a scan-run row and returns its generated id.
func (s *SQLiteStore) RecordScanRun(ctx context.Context, root string, files int, started, finished time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (id, root, files, started_at, finished_at) VALUES (?, ?, ?, ?, ?)
	`, id, root, files, started, finished)
	if err != nil {
		return "", fmt.Errorf("failed to record scan run: %w", err)
	}
	return id, nil
}

// LastScanRun returns the most recent scan run, or nil if none exist.
func (s *SQLiteStore) LastScanRun(ctx context.Context) (*ScanRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, root, files, started_at, finished_at FROM scan_runs
		ORDER BY finished_at DESC LIMIT 1
	`)

	var run ScanRun
	if err := row.Scan(&run.ID, &run.Root, &run.Files, &run.StartedAt, &run.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
