package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"merchanthaus.com/web/internal/sqlitedb"
)

// Store persists application records.
type Store interface {
	Insert(ctx context.Context, app Application) error
	Get(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, limit int) ([]Application, error)
}

// MemoryStore keeps applications in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: map[string]Application{}}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return &StoreError{Op: "applications.memory.insert", Reason: ReasonConflict, Err: fmt.Errorf("id %s exists", app.ID)}
	}
	app.Products = append([]string(nil), app.Products...)
	s.apps[app.ID] = app
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// List implements Store, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Application, error) {
	s.mu.RLock()
	out := make([]Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SQLStore keeps applications in the SQLite database opened by sqlitedb.Open.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const applicationColumns = `id, dba_name, legal_name, address1, address2, city, state, zip,
	contact_name, email, phone, website, username, notes, has_processor, processor_name,
	products_json, status, created_at`

// Insert implements Store.
func (s *SQLStore) Insert(ctx context.Context, app Application) error {
	products, err := json.Marshal(app.Products)
	if err != nil {
		return fmt.Errorf("applications: encode products: %w", err)
	}
	hasProcessor := 0
	if app.HasProcessor {
		hasProcessor = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merchant_applications (`+applicationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.DBAName, app.LegalName, app.Address.Line1, app.Address.Line2, app.Address.City,
		app.Address.State, app.Address.Zip, app.ContactName, app.Email, app.Phone, app.Website,
		app.Username, app.Notes, hasProcessor, app.ProcessorName, products, app.Status,
		sqlitedb.TimeToMillis(app.CreatedAt),
	)
	return fromSQL("applications.sqlite.insert", err)
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM merchant_applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if err != nil {
		return Application{}, fromSQL("applications.sqlite.get", err)
	}
	return app, nil
}

// List implements Store, newest first.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM merchant_applications ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fromSQL("applications.sqlite.list", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	out := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (Application, error) {
	var (
		app          Application
		hasProcessor int64
		products     []byte
		createdAt    int64
	)
	err := row.Scan(
		&app.ID, &app.DBAName, &app.LegalName, &app.Address.Line1, &app.Address.Line2,
		&app.Address.City, &app.Address.State, &app.Address.Zip, &app.ContactName, &app.Email,
		&app.Phone, &app.Website, &app.Username, &app.Notes, &hasProcessor, &app.ProcessorName,
		&products, &app.Status, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, err
		}
		return Application{}, fmt.Errorf("applications: scan: %w", err)
	}
	if err := json.Unmarshal(products, &app.Products); err != nil {
		return Application{}, fmt.Errorf("applications: decode products: %w", err)
	}
	app.HasProcessor = hasProcessor != 0
	app.CreatedAt = sqlitedb.MillisToTime(createdAt)
	return app, nil
}
