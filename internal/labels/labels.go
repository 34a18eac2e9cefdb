// Package labels stores the cue labels operators attach to timers. Labels
// live in SQLite and are cached in memory, since snapshot encoding resolves
// label text on every broadcast.
package labels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const MaxTextLength = 10

var (
	ErrNotFound    = errors.New("label not found")
	ErrInvalidText = errors.New("label text is required")
)

type Label struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	labels []Label
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load fills the cache from the database, writing seed first when the table
// is empty.
func (s *Store) Load(ctx context.Context, seed []Label) error {
	ls, err := s.query(ctx)
	if err != nil {
		return err
	}

	if len(ls) == 0 && len(seed) > 0 {
		if err := s.write(ctx, seed); err != nil {
			return fmt.Errorf("seeding labels: %w", err)
		}
		ls = slices.Clone(seed)
	}

	s.mu.Lock()
	s.labels = ls
	s.mu.Unlock()
	return nil
}

// List returns labels ordered by position.
func (s *Store) List() []Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.labels)
}

func (s *Store) Get(id string) (Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return Label{}, ErrNotFound
	}
	return s.labels[i], nil
}

// Text resolves a label id to its text. Unknown ids resolve to "".
func (s *Store) Text(id string) string {
	if id == "" {
		return ""
	}
	l, err := s.Get(id)
	if err != nil {
		return ""
	}
	return l.Text
}

// At returns the label at a 1-based position in the ordered list.
func (s *Store) At(pos int) (Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 1 || pos > len(s.labels) {
		return Label{}, ErrNotFound
	}
	return s.labels[pos-1], nil
}

func (s *Store) Add(ctx context.Context, text string) (Label, error) {
	if strings.TrimSpace(text) == "" {
		return Label{}, ErrInvalidText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := Label{ID: uuid.NewString(), Text: clip(text), Order: 1}
	if n := len(s.labels); n > 0 {
		l.Order = s.labels[n-1].Order + 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (id, text, position) VALUES (?, ?, ?)`,
		l.ID, l.Text, l.Order)
	if err != nil {
		return Label{}, fmt.Errorf("inserting label: %w", err)
	}
	s.labels = append(s.labels, l)
	return l, nil
}

func (s *Store) Update(ctx context.Context, id, text string) (Label, error) {
	if strings.TrimSpace(text) == "" {
		return Label{}, ErrInvalidText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Label{}, ErrNotFound
	}
	text = clip(text)
	if _, err := s.db.ExecContext(ctx, `UPDATE labels SET text = ? WHERE id = ?`, text, id); err != nil {
		return Label{}, fmt.Errorf("updating label: %w", err)
	}
	s.labels[i].Text = text
	return s.labels[i], nil
}

// Delete removes a label. Timers still pointing at it resolve to "".
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting label: %w", err)
	}
	s.labels = slices.Delete(s.labels, i, i+1)
	return nil
}

// Reorder moves the given ids to positions 1..n in order, then renumbers the
// whole list. Unknown ids are skipped.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.labels)
	for pos, id := range ids {
		if i := indexOf(next, id); i >= 0 {
			next[i].Order = pos + 1
		}
	}
	slices.SortStableFunc(next, func(a, b Label) int { return a.Order - b.Order })
	for i := range next {
		next[i].Order = i + 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, l := range next {
		if _, err := tx.ExecContext(ctx, `UPDATE labels SET position = ? WHERE id = ?`, l.Order, l.ID); err != nil {
			return fmt.Errorf("updating position: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder: %w", err)
	}
	s.labels = next
	return nil
}

// Check implements health.Checker.
func (s *Store) Check(ctx context.Context) error {
	var n int
	return s.db.QueryRowContext(ctx, `SELECT count(*) FROM labels`).Scan(&n)
}

func (s *Store) query(ctx context.Context) ([]Label, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, position FROM labels ORDER BY position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	defer rows.Close()

	var out []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.Text, &l.Order); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) write(ctx context.Context, ls []Label) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, l := range ls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO labels (id, text, position) VALUES (?, ?, ?)`,
			l.ID, l.Text, l.Order); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) index(id string) int { return indexOf(s.labels, id) }

func indexOf(ls []Label, id string) int {
	return slices.IndexFunc(ls, func(l Label) bool { return l.ID == id })
}

func clip(text string) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) > MaxTextLength {
		return string(r[:MaxTextLength])
	}
	return text
}
