// Package storage provides access to the catalog's tabular store.
//
// Two backends implement Store: RESTStore talks to the hosted PostgREST API
// with either the service-role key (bypasses row level security) or the
// anonymous key (sees what customers see), and SQLiteStore keeps a local
// mirror that tools can run against with -local. SQLiteStore also holds the
// run journal and the suggestion cache.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	TableCategories = "categories"
	TableProducts   = "products"
	TableOrderItems = "venthub_order_items"

	// ZeroID never matches a real row; Neq("id", ZeroID) selects everything.
	ZeroID = "00000000-0000-0000-0000-000000000000"
)

// ErrNoFilter is returned by Update and Delete when called without filters.
var ErrNoFilter = errors.New("refusing to modify rows without a filter")

// Op is a filter operator.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpILike Op = "ilike"
	OpIs    Op = "is"
)

// Filter restricts the rows a query touches.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }
func IsNull(column string) Filter         { return Filter{Column: column, Op: OpIs, Value: nil} }

// ILike is a case-insensitive pattern match; % and _ are wildcards and a
// backslash escapes them.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes the wildcards in s so it matches literally inside an
// ILike pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Order sorts a select.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a select.
type Query struct {
	Columns []string // empty selects every column
	Filters []Filter
	Order   []Order
	Limit   int
}

// Store is the tabular store used by every tool.
type Store interface {
	// Select decodes matching rows into dest, a pointer to a slice.
	Select(ctx context.Context, table string, dest any, q Query) error
	Count(ctx context.Context, table string, filters ...Filter) (int, error)
	// Insert writes rows, a slice of structs or maps.
	Insert(ctx context.Context, table string, rows any) error
	Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(kind, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}

func checkQuery(table string, q Query) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	for _, c := range q.Columns {
		if err := checkIdent("column", c); err != nil {
			return err
		}
	}
	for _, o := range q.Order {
		if err := checkIdent("column", o.Column); err != nil {
			return err
		}
	}
	return checkFilters(q.Filters)
}

func checkFilters(filters []Filter) error {
	for _, f := range filters {
		if err := checkIdent("column", f.Column); err != nil {
			return err
		}
		switch f.Op {
		case OpEq, OpNeq, OpILike:
			if f.Value == nil {
				return fmt.Errorf("filter %s.%s needs a value", f.Column, f.Op)
			}
		case OpIs:
		default:
			return fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return nil
}
