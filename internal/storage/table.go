package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lifeboard/internal/casing"
	"lifeboard/internal/core"
)

// Row is one record with storage-side (snake_case) column names.
type Row map[string]any

// Kind tells the gateway how a column travels between Go and SQL.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
	// JSON columns hold an encoded array or object in a TEXT column.
	JSON
)

type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// Schema describes one table for the gateway.
type Schema struct {
	Name     string
	Resource string // used in not-found messages
	Key      string
	// AutoKey leaves key assignment to the database.
	AutoKey bool
	// Scoped tables carry a user_id column that every statement filters on.
	Scoped  bool
	Columns []Column
}

func (s Schema) column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s Schema) selectList() string {
	names := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		names = append(names, quote(c.Name))
	}
	if s.Scoped {
		names = append(names, quote("user_id"))
	}
	return strings.Join(names, ", ")
}

// Cond is one "column op ?" filter.
type Cond struct {
	Column string
	Op     string
	Value  any
}

// Table is a small row gateway: whitelisted columns, user scoping and
// dialect-neutral SQL over database/sql.
type Table struct {
	db     *DB
	schema Schema
}

func NewTable(db *DB, schema Schema) *Table {
	return &Table{db: db, schema: schema}
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// scope appends the user filter on scoped tables.
func (t *Table) scope(where []string, args []any, userID string) ([]string, []any) {
	if t.schema.Scoped {
		where = append(where, quote("user_id")+" = ?")
		args = append(args, userID)
	}
	return where, args
}

// Select returns matching rows ordered by key.
func (t *Table) Select(ctx context.Context, userID string, conds ...Cond) ([]Row, error) {
	var where []string
	var args []any
	for _, c := range conds {
		if _, ok := t.schema.column(c.Column); !ok && c.Column != "user_id" {
			return nil, fmt.Errorf("unknown column %s.%s", t.schema.Name, c.Column)
		}
		where = append(where, fmt.Sprintf("%s %s ?", quote(c.Column), c.Op))
		args = append(args, c.Value)
	}
	where, args = t.scope(where, args, userID)

	query := fmt.Sprintf("SELECT %s FROM %s", t.schema.selectList(), quote(t.schema.Name))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + quote(t.schema.Key)

	rows, err := t.db.sql.QueryContext(ctx, t.db.rebind(query), args...)
	if err != nil {
		return nil, core.Storage("select "+t.schema.Name, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("iterate "+t.schema.Name, err)
	}
	return out, nil
}

// Get returns the row with key, or core.ErrNotFound.
func (t *Table) Get(ctx context.Context, userID string, key any) (Row, error) {
	rows, err := t.Select(ctx, userID, Cond{Column: t.schema.Key, Op: "=", Value: key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NotFound(t.schema.Resource, key)
	}
	return rows[0], nil
}

// Insert writes row and returns it as stored.
func (t *Table) Insert(ctx context.Context, userID string, row Row) (Row, error) {
	cols, args, err := t.assignments(row, t.schema.AutoKey)
	if err != nil {
		return nil, err
	}
	if t.schema.Scoped {
		cols = append(cols, "user_id")
		args = append(args, userID)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quote(t.schema.Name), quoteAll(cols), placeholders(len(cols)), t.schema.selectList())
	return t.queryRow(ctx, query, args, nil)
}

// Update sets the columns present in patch on the row with key.
func (t *Table) Update(ctx context.Context, userID string, key any, patch Row) (Row, error) {
	cols, args, err := t.assignments(patch, true)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return t.Get(ctx, userID, key)
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quote(c) + " = ?"
	}
	where, args := t.scope([]string{quote(t.schema.Key) + " = ?"}, append(args, key), userID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		quote(t.schema.Name), strings.Join(sets, ", "), strings.Join(where, " AND "), t.schema.selectList())
	return t.queryRow(ctx, query, args, core.NotFound(t.schema.Resource, key))
}

// Upsert inserts row or, when conflictCols already match a row owned by the
// same user, overwrites updateCols on it.
func (t *Table) Upsert(ctx context.Context, userID string, row Row, conflictCols, updateCols []string) (Row, error) {
	cols, args, err := t.assignments(row, t.schema.AutoKey)
	if err != nil {
		return nil, err
	}
	if t.schema.Scoped {
		cols = append(cols, "user_id")
		args = append(args, userID)
	}
	sets := make([]string, len(updateCols))
	for i, c := range updateCols {
		sets[i] = fmt.Sprintf("%s = excluded.%s", quote(c), quote(c))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		quote(t.schema.Name), quoteAll(cols), placeholders(len(cols)), quoteAll(conflictCols), strings.Join(sets, ", "))
	if t.schema.Scoped {
		query += fmt.Sprintf(" WHERE %s.%s = excluded.%s", quote(t.schema.Name), quote("user_id"), quote("user_id"))
	}
	query += " RETURNING " + t.schema.selectList()
	return t.queryRow(ctx, query, args, core.NotFound(t.schema.Resource, strings.Join(conflictCols, ",")))
}

// Delete removes the row with key. Missing rows are not an error.
func (t *Table) Delete(ctx context.Context, userID string, key any) error {
	where, args := t.scope([]string{quote(t.schema.Key) + " = ?"}, []any{key}, userID)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", quote(t.schema.Name), strings.Join(where, " AND "))
	if _, err := t.db.sql.ExecContext(ctx, t.db.rebind(query), args...); err != nil {
		return core.Storage("delete "+t.schema.Name, err)
	}
	return nil
}

func (t *Table) queryRow(ctx context.Context, query string, args []any, missing error) (Row, error) {
	rows, err := t.db.sql.QueryContext(ctx, t.db.rebind(query), args...)
	if err != nil {
		return nil, t.classify(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, t.classify(err)
		}
		if missing == nil {
			return nil, core.Storage("write "+t.schema.Name, sql.ErrNoRows)
		}
		return nil, missing
	}
	r, err := t.scan(rows)
	if err != nil {
		return nil, err
	}
	return r, rows.Err()
}

// assignments returns whitelisted columns of row in a stable order with their
// values encoded for SQL. Unknown keys, user_id and optionally the key column
// are dropped.
func (t *Table) assignments(row Row, skipKey bool) ([]string, []any, error) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	var cols []string
	var args []any
	for _, name := range names {
		col, ok := t.schema.column(name)
		if !ok || (skipKey && name == t.schema.Key) {
			continue
		}
		v, err := encodeValue(col, row[name])
		if err != nil {
			return nil, nil, core.Validation(fmt.Sprintf("invalid %s: %v", casing.Camel(name), err))
		}
		cols = append(cols, name)
		args = append(args, v)
	}
	return cols, args, nil
}

func (t *Table) scan(rows *sql.Rows) (Row, error) {
	n := len(t.schema.Columns)
	if t.schema.Scoped {
		n++
	}
	dest := make([]any, n)
	ptrs := make([]any, n)
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, core.Storage("scan "+t.schema.Name, err)
	}
	out := make(Row, n)
	for i, col := range t.schema.Columns {
		v, err := decodeValue(col, dest[i])
		if err != nil {
			return nil, core.Storage("decode "+t.schema.Name+"."+col.Name, err)
		}
		out[col.Name] = v
	}
	if t.schema.Scoped {
		out["user_id"] = asString(dest[n-1])
	}
	return out, nil
}

// classify maps unique violations to core.ErrConflict.
func (t *Table) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return core.Conflict(fmt.Sprintf("%s already exists", t.schema.Resource))
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && (liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return core.Conflict(fmt.Sprintf("%s already exists", t.schema.Resource))
	}
	return core.Storage("write "+t.schema.Name, err)
}

func encodeValue(col Column, v any) (any, error) {
	if v == nil {
		if col.Nullable {
			return nil, nil
		}
		return nil, errors.New("must not be null")
	}
	switch col.Kind {
	case Int:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return int64(f), nil
	case Float:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		return f, nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case JSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}
}

// decodeValue normalises driver values: SQLite returns booleans as integers
// and text as either string or []byte.
func decodeValue(col Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Kind {
	case Int:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int32:
			return int64(n), nil
		case float64:
			return int64(n), nil
		}
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case Bool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		}
	case JSON:
		var decoded any
		if err := json.Unmarshal([]byte(asString(v)), &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	default:
		return asString(v), nil
	}
	return nil, fmt.Errorf("unexpected %T for column %s", v, col.Name)
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
