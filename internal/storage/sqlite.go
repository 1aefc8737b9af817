package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"modernc.org/sqlite"
)

// SQLite's LOWER only folds ASCII. ulower folds the Turkish letters too, so
// ILike behaves like the hosted store's ilike on names such as "ŞİŞME".
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("ulower", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return unicodeLower(v), nil
		case []byte:
			return unicodeLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

// unicodeLower drops the combining dot strings.ToLower leaves after "İ".
func unicodeLower(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "\u0307", "")
}

// SQLiteStore implements Store on a local SQLite database. It mirrors the
// categories and products tables of the hosted store and adds the local
// run_journal and suggestion_cache tables.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath. Use
// ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	if dbPath == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Tools are sequential, and an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT,
		parent_id TEXT,
		level INTEGER,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT,
		price REAL NOT NULL DEFAULT 0,
		sku TEXT,
		category_id TEXT,
		subcategory_id TEXT,
		status TEXT,
		description TEXT,
		stock_qty INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS venthub_order_items (
		id TEXT PRIMARY KEY,
		product_id TEXT,
		quantity INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS run_journal (
		key TEXT PRIMARY KEY,
		details TEXT,
		applied_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS suggestion_cache (
		key TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

func (s *SQLiteStore) init() error {
	for _, q := range schema {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Select(ctx context.Context, table string, dest any, q Query) error {
	if err := checkQuery(table, q); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}
	where, args := whereClause(q.Filters)
	query := fmt.Sprintf("SELECT %s FROM %s%s", cols, table, where)
	if len(q.Order) > 0 {
		var parts []string
		for _, o := range q.Order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, o.Column+" "+dir)
		}
		query += " ORDER BY " + strings.Join(parts, ", ")
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, table string, filters ...Filter) (int, error) {
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := whereClause(filters)
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, table string, rows any) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	records, err := toRecords(rows)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if id, ok := rec["id"]; !ok || id == nil || id == "" {
			rec["id"] = uuid.New().String()
		}
		keys := sortedKeys(rec)
		placeholders := make([]string, len(keys))
		args := make([]any, len(keys))
		for i, k := range keys {
			if err := checkIdent("column", k); err != nil {
				return err
			}
			placeholders[i] = "?"
			args[i] = sqlValue(rec[k])
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) error {
	if len(filters) == 0 {
		return ErrNoFilter
	}
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := sortedKeys(patch)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filters))
	for i, k := range keys {
		if err := checkIdent("column", k); err != nil {
			return err
		}
		sets[i] = k + " = ?"
		args = append(args, sqlValue(patch[k]))
	}
	where, whereArgs := whereClause(filters)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return ErrNoFilter
	}
	if err := checkQuery(table, Query{Filters: filters}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	where, args := whereClause(filters)
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s%s", table, where), args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func whereClause(filters []Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var conds []string
	var args []any
	for _, f := range filters {
		switch f.Op {
		case OpEq:
			conds = append(conds, f.Column+" = ?")
			args = append(args, sqlValue(f.Value))
		case OpNeq:
			conds = append(conds, f.Column+" <> ?")
			args = append(args, sqlValue(f.Value))
		case OpILike:
			conds = append(conds, "ulower("+f.Column+") LIKE ulower(?) ESCAPE '\\'")
			args = append(args, sqlValue(f.Value))
		case OpIs:
			conds = append(conds, f.Column+" IS NULL")
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// toRecords converts a slice of structs or maps to column maps using their
// JSON field names, the same shape PostgREST receives.
func toRecords(rows any) ([]map[string]any, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("rows must be a slice of objects: %w", err)
	}
	return records, nil
}

func sqlValue(v any) any {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case map[string]any, []any:
		data, _ := json.Marshal(t)
		return string(data)
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
