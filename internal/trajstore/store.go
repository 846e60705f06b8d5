// Package trajstore keeps a library of computed trajectories in SQLite.
// Bodies are stored in the trajectory text format with every field, so a
// loaded trajectory reproduces the stored timing exactly.
package trajstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trajectory/internal/geom"
	"github.com/banshee-data/trajectory/internal/traj"
)

// ErrNotFound is returned when no trajectory has the requested ID.
var ErrNotFound = errors.New("trajectory not found")

// Record is the metadata kept alongside a stored trajectory.
type Record struct {
	ID            string  `json:"trajectory_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	DOF           int     `json:"dof"`
	Points        int     `json:"points"`
	Interpolation string  `json:"interpolation"`
	DurationSecs  float64 `json:"duration_secs"`
	CreatedAtNs   int64   `json:"created_at_ns"`
}

// Store persists trajectories.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and brings its
// schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, applying migrations.
func New(db *sql.DB) (*Store, error) {
	if err := migrateUp(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a computed trajectory under name and returns its record.
func (s *Store) Put(ctx context.Context, name, description string, t *traj.Trajectory) (*Record, error) {
	if !t.Computed() {
		return nil, fmt.Errorf("%w: only computed trajectories can be stored", traj.ErrInvalidInput)
	}
	var body bytes.Buffer
	if err := t.Write(&body, traj.AllFields); err != nil {
		return nil, fmt.Errorf("encode trajectory: %w", err)
	}

	rec := &Record{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   description,
		DOF:           t.DOF(),
		Points:        t.Len(),
		Interpolation: t.Method().String(),
		DurationSecs:  t.TotalDuration(),
		CreatedAtNs:   time.Now().UnixNano(),
	}

	query := `
		INSERT INTO trajectories (
			trajectory_id, name, description, dof, points,
			interpolation, duration_secs, body, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		nullString(rec.Description),
		rec.DOF,
		rec.Points,
		rec.Interpolation,
		rec.DurationSecs,
		body.String(),
		rec.CreatedAtNs,
	)
	if err != nil {
		return nil, fmt.Errorf("insert trajectory: %w", err)
	}
	return rec, nil
}

// Get loads a trajectory by ID and recomputes it with its stored
// interpolation, keeping the stored timestamps.
//
// The stored body carries no accelerations. A quintic trajectory comes back
// with zero endpoint accelerations whatever the caller supplied to Put, so its
// coefficients only match the original when those endpoints were at rest.
func (s *Store) Get(ctx context.Context, id string) (*Record, *traj.Trajectory, error) {
	query := `
		SELECT trajectory_id, name, description, dof, points,
		       interpolation, duration_secs, body, created_at_ns
		FROM trajectories
		WHERE trajectory_id = ?
	`
	var rec Record
	var description sql.NullString
	var body string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Name,
		&description,
		&rec.DOF,
		&rec.Points,
		&rec.Interpolation,
		&rec.DurationSecs,
		&body,
		&rec.CreatedAtNs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get trajectory: %w", err)
	}
	if description.Valid {
		rec.Description = description.String
	}

	t, err := traj.Read(strings.NewReader(body), geom.Identity(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("decode trajectory %s: %w", id, err)
	}
	method, err := traj.ParseInterpolation(rec.Interpolation)
	if err != nil {
		return nil, nil, fmt.Errorf("trajectory %s: %w", id, err)
	}
	if t.Len() > 0 {
		if err := t.Compute(nil, traj.ComputeOptions{Method: method}); err != nil {
			return nil, nil, fmt.Errorf("recompute trajectory %s: %w", id, err)
		}
	}
	return &rec, t, nil
}

// List returns every stored record, oldest first. A non-empty name filters
// on exact name.
func (s *Store) List(ctx context.Context, name string) ([]*Record, error) {
	query := `
		SELECT trajectory_id, name, description, dof, points,
		       interpolation, duration_secs, created_at_ns
		FROM trajectories
	`
	var args []interface{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at_ns, trajectory_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trajectories: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var description sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&description,
			&rec.DOF,
			&rec.Points,
			&rec.Interpolation,
			&rec.DurationSecs,
			&rec.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan trajectory: %w", err)
		}
		if description.Valid {
			rec.Description = description.String
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trajectories: %w", err)
	}
	return out, nil
}

// Delete removes a trajectory by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM trajectories WHERE trajectory_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trajectory: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
