// Package repository implements the generic persistence layer of skycast:
// a declarative query specification, a lazily-begun transactional session,
// a generic entity repository over GORM and a blob repository over the
// storage adapter. All failures leaving this package are classified
// exception.ServiceError values.
package repository

import (
	"fmt"
	"regexp"
	"strings"
)

// Direction of an order expression.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderExpr is a single ORDER BY term.
type OrderExpr struct {
	Column    string
	Direction Direction
}

// PredicateKind discriminates the predicate variants.
type PredicateKind int

const (
	predicateEq PredicateKind = iota
	predicateCompare
	predicateIn
	predicateRaw
)

var compareOps = map[string]struct{}{
	"=": {}, "<>": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
}

// Predicate is one WHERE term. Predicates combine with AND; use Raw for
// anything the structured variants cannot express.
type Predicate struct {
	kind   PredicateKind
	column string
	op     string
	value  interface{}
	values []interface{}
	expr   string
	args   []interface{}
}

// Eq matches rows where column equals value.
func Eq(column string, value interface{}) Predicate {
	return Predicate{kind: predicateEq, column: column, value: value}
}

// Compare matches rows where column relates to value via op. The operator
// must be one of =, <>, >, >=, <, <=.
func Compare(column, op string, value interface{}) Predicate {
	return Predicate{kind: predicateCompare, column: column, op: op, value: value}
}

// In matches rows where column is one of values.
func In(column string, values ...interface{}) Predicate {
	return Predicate{kind: predicateIn, column: column, values: values}
}

// Raw matches rows by a verbatim SQL fragment with positional arguments.
// The fragment is applied as written; callers own its portability.
func Raw(expr string, args ...interface{}) Predicate {
	return Predicate{kind: predicateRaw, expr: expr, args: args}
}

// Spec is an immutable description of a query: what to select, how to
// filter, how to order and how to page. A zero Spec selects everything in
// store order. Specs carry no connection state and are safe to share.
type Spec struct {
	// Ordering selects a named entry from OrderExpressions. Unknown keys
	// are rejected at query time.
	Ordering string
	// OrderExpressions is the table of named orderings the caller exposes,
	// typically fixed per endpoint.
	OrderExpressions map[string][]OrderExpr
	// Orderings are explicit order terms. When present they win over
	// Ordering entirely; the two are never merged.
	Orderings []OrderExpr
	// Columns projects the result onto the named columns. A projected
	// query yields rows, not entities.
	Columns []string
	// Preloads names associations to load eagerly.
	Preloads []string
	// Search is a free-text filter over SearchFields: terms are split on
	// whitespace, matched case-insensitively as substrings, OR across
	// fields and AND across terms. Empty means no filtering.
	Search string
	// SearchFields are the columns Search applies to. Search with no
	// fields filters nothing.
	SearchFields []string
	// Predicates are structured WHERE terms, combined with AND.
	Predicates []Predicate
	// PageNumber is the 1-based page, used by paginated reads only.
	PageNumber int
	// PageSize is the page length, used by paginated reads only.
	PageSize int
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validColumn guards column names that get interpolated into SQL text.
func validColumn(name string) bool {
	return identifierPattern.MatchString(name)
}

// resolveOrderings returns the effective order terms of the spec: explicit
// Orderings when present, otherwise the named entry. An unknown Ordering
// key is an error.
func (s Spec) resolveOrderings() ([]OrderExpr, error) {
	if len(s.Orderings) > 0 {
		return s.Orderings, nil
	}
	if s.Ordering == "" {
		return nil, nil
	}
	exprs, ok := s.OrderExpressions[s.Ordering]
	if !ok {
		return nil, fmt.Errorf("unknown ordering '%s'", s.Ordering)
	}
	return exprs, nil
}

// likeEscaper escapes the LIKE wildcards and the chosen escape character.
// '!' is used as the escape character because it is portable across
// postgres, mysql and sqlite, unlike a backslash.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchTerms splits the search text into wildcard-escaped terms. Case
// folding happens in SQL on both sides of the LIKE so it uses the store's
// collation rules.
func (s Spec) searchTerms() []string {
	fields := strings.Fields(s.Search)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, likeEscaper.Replace(f))
	}
	return terms
}
