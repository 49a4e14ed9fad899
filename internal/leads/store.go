// Package leads stores submissions received by the form backend.
package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"merchanthaus.com/web/internal/sqlitedb"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("leads: not found")

// Lead is one post accepted by the form backend.
type Lead struct {
	ID         string
	FormName   string
	Fields     map[string][]string
	RemoteIP   string
	UserAgent  string
	Spam       bool
	ReceivedAt time.Time
}

// ListOptions filters List.
type ListOptions struct {
	Form        string
	IncludeSpam bool
	Limit       int
}

// Store persists leads.
type Store interface {
	Insert(ctx context.Context, lead Lead) error
	Get(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, opts ListOptions) ([]Lead, error)
}

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]Lead
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: map[string]Lead{}}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, lead Lead) error {
	if strings.TrimSpace(lead.ID) == "" {
		return fmt.Errorf("leads: id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[lead.ID]; exists {
		return fmt.Errorf("leads: duplicate id %s", lead.ID)
	}
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

// List implements Store, newest first.
func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]Lead, error) {
	s.mu.RLock()
	out := make([]Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if opts.Form != "" && lead.FormName != opts.Form {
			continue
		}
		if lead.Spam && !opts.IncludeSpam {
			continue
		}
		out = append(out, cloneLead(lead))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ID > out[j].ID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func cloneLead(l Lead) Lead {
	fields := make(map[string][]string, len(l.Fields))
	for k, v := range l.Fields {
		fields[k] = append([]string(nil), v...)
	}
	l.Fields = fields
	return l
}

// SQLStore keeps leads in the SQLite database opened by sqlitedb.Open.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Insert implements Store.
func (s *SQLStore) Insert(ctx context.Context, lead Lead) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("leads: storage is not configured")
	}
	if strings.TrimSpace(lead.ID) == "" {
		return fmt.Errorf("leads: id is required")
	}
	fields, err := json.Marshal(lead.Fields)
	if err != nil {
		return fmt.Errorf("leads: encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, form_name, fields_json, remote_ip, user_agent, spam, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.FormName, fields, lead.RemoteIP, lead.UserAgent, boolToInt(lead.Spam),
		sqlitedb.TimeToMillis(lead.ReceivedAt),
	)
	if err != nil {
		return fmt.Errorf("leads: insert: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, form_name, fields_json, remote_ip, user_agent, spam, received_at
		 FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// List implements Store, newest first.
func (s *SQLStore) List(ctx context.Context, opts ListOptions) ([]Lead, error) {
	query := `SELECT id, form_name, fields_json, remote_ip, user_agent, spam, received_at FROM leads WHERE 1 = 1`
	var args []any
	if opts.Form != "" {
		query += ` AND form_name = ?`
		args = append(args, opts.Form)
	}
	if !opts.IncludeSpam {
		query += ` AND spam = 0`
	}
	query += ` ORDER BY received_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (Lead, error) {
	var (
		lead       Lead
		fieldsJSON []byte
		spam       int64
		receivedAt int64
	)
	if err := row.Scan(&lead.ID, &lead.FormName, &fieldsJSON, &lead.RemoteIP, &lead.UserAgent, &spam, &receivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, err
		}
		return Lead{}, fmt.Errorf("leads: scan: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &lead.Fields); err != nil {
		return Lead{}, fmt.Errorf("leads: decode fields: %w", err)
	}
	lead.Spam = spam != 0
	lead.ReceivedAt = sqlitedb.MillisToTime(receivedAt)
	return lead, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
