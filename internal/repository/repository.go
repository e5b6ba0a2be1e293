package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgfn/skycast/internal/support/exception"
)

const (
	moduleRepository = "repository"
	moduleSession    = "session"
	moduleBlob       = "blob"
)

// classify maps a raw store error to an exception kind. Integrity failures
// become constraint violations, connectivity loss becomes unavailable, and
// everything else is an internal storage fault.
func classify(err error) exception.Kind {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return exception.KindConstraintViolation
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return exception.KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return exception.KindUnavailable
	}
	return exception.KindInternalStorage
}

// GetOptions selects a single entity. At least one of ID, Attrs or Spec
// must be set.
type GetOptions struct {
	// ID selects by primary key.
	ID *uuid.UUID
	// Attrs selects by exact column-value equality.
	Attrs map[string]interface{}
	// Spec selects by a full query specification. Its pagination fields
	// are ignored.
	Spec *Spec
	// Preloads names associations to load eagerly.
	Preloads []string
}

// ListResult holds a list read. Entities is populated for plain reads;
// Rows is populated instead when the spec projects columns.
type ListResult[T any] struct {
	Entities []T
	Rows     []map[string]interface{}
}

// Len returns the number of results regardless of shape.
func (r ListResult[T]) Len() int {
	if r.Rows != nil {
		return len(r.Rows)
	}
	return len(r.Entities)
}

// Page is one page of a paginated read together with totals computed from
// the same filters.
type Page[T any] struct {
	ListResult[T]
	TotalItems int64
	TotalPages int64
}

// Repository is a generic entity repository bound to a session. All writes
// execute inside the session's transaction and stay pending until the
// session commits. Every failed operation rolls the session back before
// returning a classified error.
type Repository[T any] struct {
	session *Session
}

// New creates a repository for entity type T over the given session.
func New[T any](session *Session) *Repository[T] {
	return &Repository[T]{session: session}
}

// Session exposes the underlying session for commit/rollback control.
func (r *Repository[T]) Session() *Session { return r.session }

// fail rolls the session back and wraps err as a classified ServiceError.
func (r *Repository[T]) fail(op string, err error) error {
	_ = r.session.Rollback()
	return exception.New(classify(err), moduleRepository, fmt.Sprintf("%s failed", op), err)
}

// invalid rolls the session back and reports caller misuse.
func (r *Repository[T]) invalid(format string, a ...interface{}) error {
	_ = r.session.Rollback()
	return exception.Newf(exception.KindInvalidArgument, moduleRepository, format, a...)
}

// Create inserts target within the session's transaction. The insert is
// visible to subsequent reads on the same session but durable only after
// Commit.
func (r *Repository[T]) Create(ctx context.Context, target *T) error {
	tx, err := r.session.handle()
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Create(target).Error; err != nil {
		return r.fail("create", err)
	}
	return nil
}

// Get reads a single entity. Absence is not an error: a missing entity
// yields (nil, nil), leaving not-found semantics to the caller. A supplied
// specification owns the whole selection; the ad-hoc ID, Attrs and
// Preloads options are ignored alongside it.
func (r *Repository[T]) Get(ctx context.Context, opts GetOptions) (*T, error) {
	if opts.ID == nil && len(opts.Attrs) == 0 && opts.Spec == nil {
		return nil, r.invalid("get requires an id, attributes or a specification")
	}
	tx, err := r.session.handle()
	if err != nil {
		return nil, err
	}
	query := tx.WithContext(ctx).Model(new(T))
	if opts.Spec != nil {
		query, err = r.applySpec(query, *opts.Spec, specEntities|specOrdering)
		if err != nil {
			return nil, r.invalid("get: %v", err)
		}
		return r.first(query)
	}
	for _, preload := range opts.Preloads {
		query = query.Preload(preload)
	}
	if opts.ID != nil {
		query = query.Where("id = ?", *opts.ID)
	}
	for column, value := range opts.Attrs {
		if !validColumn(column) {
			return nil, r.invalid("get: invalid column '%s'", column)
		}
		query = query.Where(fmt.Sprintf("%s = ?", column), value)
	}
	return r.first(query)
}

func (r *Repository[T]) first(query *gorm.DB) (*T, error) {
	var entity T
	if err := query.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.fail("get", err)
	}
	return &entity, nil
}

// GetList reads all entities matching the spec. Pagination fields of the
// spec are ignored; use GetPaginatedList for paged reads.
func (r *Repository[T]) GetList(ctx context.Context, spec Spec) (ListResult[T], error) {
	var result ListResult[T]
	tx, err := r.session.handle()
	if err != nil {
		return result, err
	}
	query, err := r.applySpec(tx.WithContext(ctx).Model(new(T)), spec, specEntities|specOrdering)
	if err != nil {
		return result, r.invalid("list: %v", err)
	}
	return r.collect(query, spec, result)
}

// GetPaginatedList reads one page of entities matching the spec and counts
// the total under the same filters. PageNumber and PageSize must both be
// at least 1.
func (r *Repository[T]) GetPaginatedList(ctx context.Context, spec Spec) (Page[T], error) {
	var page Page[T]
	if spec.PageNumber < 1 || spec.PageSize < 1 {
		return page, r.invalid("pagination requires page_number >= 1 and page_size >= 1, got %d/%d",
			spec.PageNumber, spec.PageSize)
	}
	total, err := r.Count(ctx, spec)
	if err != nil {
		return page, err
	}
	tx, err := r.session.handle()
	if err != nil {
		return page, err
	}
	query, err := r.applySpec(tx.WithContext(ctx).Model(new(T)), spec, specEntities|specOrdering)
	if err != nil {
		return page, r.invalid("paginated list: %v", err)
	}
	query = query.Offset((spec.PageNumber - 1) * spec.PageSize).Limit(spec.PageSize)
	page.ListResult, err = r.collect(query, spec, page.ListResult)
	if err != nil {
		return page, err
	}
	page.TotalItems = total
	page.TotalPages = (total + int64(spec.PageSize) - 1) / int64(spec.PageSize)
	return page, nil
}

// Count returns the number of entities matching the spec's filters.
// Ordering, projection and pagination are ignored.
func (r *Repository[T]) Count(ctx context.Context, spec Spec) (int64, error) {
	tx, err := r.session.handle()
	if err != nil {
		return 0, err
	}
	query, err := r.applySpec(tx.WithContext(ctx).Model(new(T)), spec, specFiltersOnly)
	if err != nil {
		return 0, r.invalid("count: %v", err)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, r.fail("count", err)
	}
	return count, nil
}

// Delete removes entities by id, by predicates, or both combined with AND.
// Supplying neither is caller misuse. The delete stays pending until the
// session commits.
func (r *Repository[T]) Delete(ctx context.Context, id *uuid.UUID, preds ...Predicate) error {
	if id == nil && len(preds) == 0 {
		return r.invalid("delete requires an id or at least one predicate")
	}
	tx, err := r.session.handle()
	if err != nil {
		return err
	}
	query := tx.WithContext(ctx)
	if id != nil {
		query = query.Where("id = ?", *id)
	}
	query, err = applyPredicates(query, preds)
	if err != nil {
		return r.invalid("delete: %v", err)
	}
	if err := query.Delete(new(T)).Error; err != nil {
		return r.fail("delete", err)
	}
	return nil
}

// Update applies the given column values to target's row within the
// session's transaction. The target must carry its primary key.
func (r *Repository[T]) Update(ctx context.Context, target *T, values map[string]interface{}) error {
	if len(values) == 0 {
		return r.invalid("update requires at least one value")
	}
	tx, err := r.session.handle()
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Model(target).Updates(values).Error; err != nil {
		return r.fail("update", err)
	}
	return nil
}

// Save finalizes pending writes. With flushOnly it only ensures the
// transaction is open, leaving writes pending; otherwise it commits. When
// refreshTarget is non-nil after a commit, the entity is re-read by its
// primary key so store-assigned state lands back on the struct.
func (r *Repository[T]) Save(ctx context.Context, flushOnly bool, refreshTarget *T) error {
	if flushOnly {
		_, err := r.session.handle()
		return err
	}
	if err := r.session.Commit(); err != nil {
		return err
	}
	if refreshTarget != nil {
		if err := r.session.db.WithContext(ctx).First(refreshTarget).Error; err != nil {
			return exception.New(classify(err), moduleRepository, "refresh after commit failed", err)
		}
	}
	return nil
}

// collect runs the shaped query, producing rows for projected specs and
// entities otherwise.
func (r *Repository[T]) collect(query *gorm.DB, spec Spec, result ListResult[T]) (ListResult[T], error) {
	if len(spec.Columns) > 0 {
		if err := query.Find(&result.Rows).Error; err != nil {
			return result, r.fail("list", err)
		}
		return result, nil
	}
	if err := query.Find(&result.Entities).Error; err != nil {
		return result, r.fail("list", err)
	}
	return result, nil
}

type specParts int

const (
	// specFiltersOnly applies search and predicates, nothing else.
	specFiltersOnly specParts = 0
	// specEntities additionally applies projection and preloads.
	specEntities specParts = 1 << iota
	// specOrdering additionally applies order terms.
	specOrdering
)

// applySpec shapes the query from the spec in a fixed order: projection,
// preloads, ordering, search, predicates.
func (r *Repository[T]) applySpec(query *gorm.DB, spec Spec, parts specParts) (*gorm.DB, error) {
	if parts&specEntities != 0 {
		for _, column := range spec.Columns {
			if !validColumn(column) {
				return nil, fmt.Errorf("invalid projection column '%s'", column)
			}
		}
		if len(spec.Columns) > 0 {
			query = query.Select(spec.Columns)
		}
		for _, preload := range spec.Preloads {
			query = query.Preload(preload)
		}
	}
	if parts&specOrdering != 0 {
		orderings, err := spec.resolveOrderings()
		if err != nil {
			return nil, err
		}
		for _, expr := range orderings {
			if !validColumn(expr.Column) {
				return nil, fmt.Errorf("invalid ordering column '%s'", expr.Column)
			}
			dir := "ASC"
			if expr.Direction == Desc {
				dir = "DESC"
			}
			query = query.Order(fmt.Sprintf("%s %s", expr.Column, dir))
		}
	}
	query, err := applySearch(query, spec)
	if err != nil {
		return nil, err
	}
	return applyPredicates(query, spec.Predicates)
}

// applySearch adds the free-text filter: case-insensitive substring match,
// OR across fields, AND across terms.
func applySearch(query *gorm.DB, spec Spec) (*gorm.DB, error) {
	terms := spec.searchTerms()
	if len(terms) == 0 || len(spec.SearchFields) == 0 {
		return query, nil
	}
	clauses := make([]string, 0, len(spec.SearchFields))
	for _, field := range spec.SearchFields {
		if !validColumn(field) {
			return nil, fmt.Errorf("invalid search field '%s'", field)
		}
		clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE LOWER(?) ESCAPE '!'", field))
	}
	group := "(" + strings.Join(clauses, " OR ") + ")"
	for _, term := range terms {
		args := make([]interface{}, len(spec.SearchFields))
		for i := range args {
			args[i] = "%" + term + "%"
		}
		query = query.Where(group, args...)
	}
	return query, nil
}

// applyPredicates adds the structured WHERE terms, combined with AND.
func applyPredicates(query *gorm.DB, preds []Predicate) (*gorm.DB, error) {
	for _, p := range preds {
		switch p.kind {
		case predicateEq:
			if !validColumn(p.column) {
				return nil, fmt.Errorf("invalid predicate column '%s'", p.column)
			}
			query = query.Where(fmt.Sprintf("%s = ?", p.column), p.value)
		case predicateCompare:
			if !validColumn(p.column) {
				return nil, fmt.Errorf("invalid predicate column '%s'", p.column)
			}
			if _, ok := compareOps[p.op]; !ok {
				return nil, fmt.Errorf("invalid comparison operator '%s'", p.op)
			}
			query = query.Where(fmt.Sprintf("%s %s ?", p.column, p.op), p.value)
		case predicateIn:
			if !validColumn(p.column) {
				return nil, fmt.Errorf("invalid predicate column '%s'", p.column)
			}
			query = query.Where(fmt.Sprintf("%s IN ?", p.column), p.values)
		case predicateRaw:
			query = query.Where(p.expr, p.args...)
		}
	}
	return query, nil
}
