package tracestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/inference-sim/spnsim/sim/trace"
)

// ErrUnknownRun is returned for a run ID that was never begun.
var ErrUnknownRun = errors.New("unknown run")

// RunInfo describes a run at the moment it starts.
type RunInfo struct {
	Model      string
	Seed       int64
	Horizon    float64 // +Inf = until nothing is enabled
	EventNames []string
}

// Run is a stored run with its firing count.
type Run struct {
	ID         string
	Model      string
	Seed       int64
	Horizon    float64
	EventNames []string
	StartedAt  time.Time
	EndedAt    *float64 // nil until FinishRun
	Firings    int
}

// BeginRun inserts a run row and returns its ID. IDs are UUIDv7, so they
// sort by creation time.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	names, err := json.Marshal(nonNil(info.EventNames))
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	var horizon sql.NullFloat64
	if !math.IsInf(info.Horizon, 1) {
		horizon = sql.NullFloat64{Float64: info.Horizon, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, model, seed, horizon, event_names, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		id.String(),
		info.Model,
		info.Seed,
		horizon,
		string(names),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id.String(), nil
}

// FinishRun records the simulated clock at which the run stopped.
func (s *Store) FinishRun(ctx context.Context, runID string, clock float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET ended_at = ? WHERE id = ?`, clock, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrUnknownRun)
	}
	return nil
}

// WriteFirings appends records to a run in one transaction. Records whose
// sequence number is already stored are ignored, so a retried batch is safe.
func (s *Store) WriteFirings(ctx context.Context, runID string, records []trace.FiringRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write firings: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("write firings: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("write firings %s: %w", runID, ErrUnknownRun)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO firings (run_id, seq, time, event_index, event_name, deltas, rescheduled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write firings: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		deltas, merr := json.Marshal(nonNil(rec.Deltas))
		if merr != nil {
			return fmt.Errorf("write firings: seq %d: %w", rec.Seq, merr)
		}
		resched, merr := json.Marshal(nonNil(rec.Rescheduled))
		if merr != nil {
			return fmt.Errorf("write firings: seq %d: %w", rec.Seq, merr)
		}
		if _, err = stmt.ExecContext(ctx, runID, int64(rec.Seq), rec.Time, rec.EventIndex, rec.EventName,
			string(deltas), string(resched)); err != nil {
			return fmt.Errorf("write firings: seq %d: %w", rec.Seq, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write firings: %w", err)
	}
	return nil
}

// Firings returns the stored records of a run in sequence order.
func (s *Store) Firings(ctx context.Context, runID string) ([]trace.FiringRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, event_index, event_name, deltas, rescheduled
		FROM firings WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	var out []trace.FiringRecord
	for rows.Next() {
		var (
			rec            trace.FiringRecord
			seq            int64
			deltas, resche string
		)
		if err := rows.Scan(&seq, &rec.Time, &rec.EventIndex, &rec.EventName, &deltas, &resche); err != nil {
			return nil, fmt.Errorf("scan firing: %w", err)
		}
		rec.Seq = uint64(seq)
		if err := json.Unmarshal([]byte(deltas), &rec.Deltas); err != nil {
			return nil, fmt.Errorf("decode deltas of seq %d: %w", seq, err)
		}
		if err := json.Unmarshal([]byte(resche), &rec.Rescheduled); err != nil {
			return nil, fmt.Errorf("decode rescheduled of seq %d: %w", seq, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return out, nil
}

// EventCounts returns the number of stored firings per event index.
func (s *Store) EventCounts(ctx context.Context, runID string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_index, COUNT(*) FROM firings WHERE run_id = ? GROUP BY event_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var idx, n int
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[idx] = n
	}
	return out, rows.Err()
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.model, r.seed, r.horizon, r.event_names, r.started_at, r.ended_at,
		       (SELECT COUNT(*) FROM firings f WHERE f.run_id = r.id)
		FROM runs r ORDER BY r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			horizon sql.NullFloat64
			ended   sql.NullFloat64
			names   string
			started string
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.Seed, &horizon, &names, &started, &ended, &r.Firings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Horizon = math.Inf(1)
		if horizon.Valid {
			r.Horizon = horizon.Float64
		}
		if ended.Valid {
			v := ended.Float64
			r.EndedAt = &v
		}
		if err := json.Unmarshal([]byte(names), &r.EventNames); err != nil {
			return nil, fmt.Errorf("decode event names of run %s: %w", r.ID, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse start time of run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// nonNil keeps empty slices encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
