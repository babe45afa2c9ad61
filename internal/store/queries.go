package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Removal operations

// InsertRemoval records a removal attempt. A missing ID or timestamp is
// filled in; the record's ID is returned.
func (s *Store) InsertRemoval(r *Removal) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RemovedAt.IsZero() {
		r.RemovedAt = time.Now()
	}

	paths := r.Paths
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return "", fmt.Errorf("failed to marshal paths: %w", err)
	}

	query := `
		INSERT INTO removals
		(id, scan_id, name, version, kind, size_mb, command, paths, success, output, removed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		r.ID,
		r.ScanID,
		r.Name,
		r.Version,
		r.Kind,
		r.SizeMB,
		r.Command,
		string(pathsJSON),
		r.Success,
		r.Output,
		r.RemovedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return "", wrapErr(fmt.Sprintf("failed to record removal of %s", r.Name), err)
	}

	return r.ID, nil
}

// timeFormat has a fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const removalColumns = `id, scan_id, name, version, kind, size_mb, command, paths, success, output, removed_at`

// GetRemoval retrieves a removal by ID.
func (s *Store) GetRemoval(id string) (*Removal, error) {
	row := s.db.QueryRow(`SELECT `+removalColumns+` FROM removals WHERE id = ?`, id)

	r, err := scanRemoval(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("removal %s not found", id)
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("failed to get removal %s", id), err)
	}
	return r, nil
}

// ListRemovals returns removals newest first. limit <= 0 returns all.
func (s *Store) ListRemovals(limit int) ([]*Removal, error) {
	query := `SELECT ` + removalColumns + ` FROM removals ORDER BY removed_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr("failed to list removals", err)
	}
	defer rows.Close()

	var removals []*Removal
	for rows.Next() {
		r, err := scanRemoval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan removal: %w", err)
		}
		removals = append(removals, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating removals: %w", err)
	}

	return removals, nil
}

// CountRemovals returns the number of recorded attempts and how many of them
// succeeded.
func (s *Store) CountRemovals() (total, succeeded int, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(success), 0) FROM removals`).Scan(&total, &succeeded)
	if err != nil {
		return 0, 0, wrapErr("failed to count removals", err)
	}
	return total, succeeded, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRemoval(row rowScanner) (*Removal, error) {
	var r Removal
	var scanID, version, command, output sql.NullString
	var pathsJSON sql.NullString
	var sizeMB sql.NullFloat64
	var removedAt string

	if err := row.Scan(
		&r.ID,
		&scanID,
		&r.Name,
		&version,
		&r.Kind,
		&sizeMB,
		&command,
		&pathsJSON,
		&r.Success,
		&output,
		&removedAt,
	); err != nil {
		return nil, err
	}

	r.ScanID = scanID.String
	r.Version = version.String
	r.Command = command.String
	r.Output = output.String
	r.SizeMB = sizeMB.Float64

	if pathsJSON.Valid && pathsJSON.String != "" {
		if err := json.Unmarshal([]byte(pathsJSON.String), &r.Paths); err != nil {
			return nil, fmt.Errorf("failed to unmarshal paths for %s: %w", r.ID, err)
		}
	}

	t, err := time.Parse(timeFormat, removedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse removed_at for %s: %w", r.ID, err)
	}
	r.RemovedAt = t

	return &r, nil
}
