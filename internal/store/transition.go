package store

import (
	"database/sql"
	"time"
)

// Transition is one journaled scene state change.
type Transition struct {
	ID        string
	Source    string
	From      string
	To        string
	Rotation  float64
	CreatedAt time.Time
}

// TransitionRepository appends to and reads the transition journal.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Create appends a transition. A zero CreatedAt is set to now.
func (r *TransitionRepository) Create(t *Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO transitions (id, source, from_state, to_state, rotation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Source, t.From, t.To, t.Rotation, t.CreatedAt.UTC(),
	)
	return err
}

// List returns the most recent transitions, newest first. A non-positive limit
// returns everything.
func (r *TransitionRepository) List(limit int) ([]*Transition, error) {
	query := `SELECT id, source, from_state, to_state, rotation, created_at
		 FROM transitions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.ID, &t.Source, &t.From, &t.To, &t.Rotation, &t.CreatedAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}

// Count returns the number of journaled transitions.
func (r *TransitionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&n)
	return n, err
}

// CountBySource returns the number of transitions per source.
func (r *TransitionRepository) CountBySource() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT source, COUNT(*) FROM transitions GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

// Prune deletes all but the newest keep transitions and returns how many were removed.
func (r *TransitionRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := r.db.Exec(
		`DELETE FROM transitions WHERE rowid NOT IN (
			SELECT rowid FROM transitions ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
