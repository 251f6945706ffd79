package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reactor-sim/reactor-sim/sim/trace"
)

// ErrRunNotFound is returned when no run with the requested ID is stored.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes a stored run.
type RunInfo struct {
	ID         string
	Program    string
	TraceLevel trace.TraceLevel
	Rounds     int
	Reactions  int
}

// SaveTrace stores st under st.RunID in a single transaction. Saving the
// same run twice fails.
func (s *Store) SaveTrace(ctx context.Context, program string, st *trace.SimulationTrace) (err error) {
	if st == nil || st.RunID == "" {
		return fmt.Errorf("save trace: missing run ID")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, program, trace_level, rounds, reactions)
		VALUES (?, ?, ?, ?, ?)
	`, st.RunID, program, string(st.Config.Level), len(st.Rounds), len(st.Reactions)); err != nil {
		return fmt.Errorf("save trace: insert run: %w", err)
	}

	roundStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rounds (run_id, seq, elapsed, microstep, events, reactions, payloads_released)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	defer roundStmt.Close()
	for i, r := range st.Rounds {
		if _, err = roundStmt.ExecContext(ctx, st.RunID, i, r.Elapsed, r.Microstep,
			r.Events, r.Reactions, r.PayloadsReleased); err != nil {
			return fmt.Errorf("save trace: insert round %d: %w", i, err)
		}
	}

	reactionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reactions (run_id, seq, elapsed, microstep, reaction, priority, deadline_missed, handler)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	defer reactionStmt.Close()
	for i, r := range st.Reactions {
		if _, err = reactionStmt.ExecContext(ctx, st.RunID, i, r.Elapsed, r.Microstep,
			r.Reaction, r.Priority, r.DeadlineMissed, r.Handler); err != nil {
			return fmt.Errorf("save trace: insert reaction %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save trace: commit: %w", err)
	}
	return nil
}

// Run returns the stored description of runID.
func (s *Store) Run(ctx context.Context, runID string) (RunInfo, error) {
	var info RunInfo
	var level string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program, trace_level, rounds, reactions FROM runs WHERE id = ?
	`, runID).Scan(&info.ID, &info.Program, &level, &info.Rounds, &info.Reactions)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("query run %s: %w", runID, err)
	}
	info.TraceLevel = trace.TraceLevel(level)
	return info, nil
}

// Runs lists stored runs ordered by ID.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, trace_level, rounds, reactions FROM runs ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var level string
		if err := rows.Scan(&info.ID, &info.Program, &level, &info.Rounds, &info.Reactions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.TraceLevel = trace.TraceLevel(level)
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LoadTrace rebuilds the trace stored for runID.
func (s *Store) LoadTrace(ctx context.Context, runID string) (*trace.SimulationTrace, error) {
	info, err := s.Run(ctx, runID)
	if err != nil {
		return nil, err
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: info.TraceLevel})
	st.RunID = runID
	if st.Rounds, err = s.loadRounds(ctx, runID); err != nil {
		return nil, err
	}
	if st.Reactions, err = s.loadReactions(ctx, runID); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) loadRounds(ctx context.Context, runID string) ([]trace.RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT elapsed, microstep, events, reactions, payloads_released
		FROM rounds WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	rounds := []trace.RoundRecord{}
	for rows.Next() {
		var r trace.RoundRecord
		if err := rows.Scan(&r.Elapsed, &r.Microstep, &r.Events, &r.Reactions, &r.PayloadsReleased); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return rounds, nil
}

func (s *Store) loadReactions(ctx context.Context, runID string) ([]trace.ReactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT elapsed, microstep, reaction, priority, deadline_missed, handler
		FROM reactions WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	reactions := []trace.ReactionRecord{}
	for rows.Next() {
		var r trace.ReactionRecord
		if err := rows.Scan(&r.Elapsed, &r.Microstep, &r.Reaction, &r.Priority, &r.DeadlineMissed, &r.Handler); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}
	return reactions, nil
}

// ReactionCounts returns how often each reaction ran in runID.
func (s *Store) ReactionCounts(ctx context.Context, runID string) (map[string]int, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT reaction, COUNT(*) FROM reactions WHERE run_id = ? GROUP BY reaction
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reaction counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan reaction count: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reaction counts: %w", err)
	}
	return counts, nil
}
