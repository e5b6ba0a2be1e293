package repository

import (
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

// Session is a unit-of-work over a GORM connection. The transaction begins
// lazily on the first operation; writes execute inside it immediately but
// become durable only on Commit. Rollback or Close without Commit discards
// everything. A Session is single-goroutine and single-use.
type Session struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewSession creates a session over the given connection. No transaction
// is opened until the first operation runs.
func NewSession(db *gorm.DB) *Session {
	return &Session{db: db}
}

// handle returns the active transaction, beginning one if needed. All
// repository operations route through it so reads observe pending writes.
func (s *Session) handle() (*gorm.DB, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, exception.New(classify(tx.Error), moduleSession, "failed to begin transaction", tx.Error)
	}
	s.tx = tx
	return s.tx, nil
}

// Active reports whether a transaction is currently open.
func (s *Session) Active() bool { return s.tx != nil }

// Commit makes all pending writes durable and ends the transaction.
// Without an open transaction it is a no-op.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit().Error
	s.tx = nil
	if err != nil {
		return exception.New(classify(err), moduleSession, "failed to commit transaction", err)
	}
	return nil
}

// Rollback discards all pending writes and ends the transaction. Without
// an open transaction it is a no-op.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	if err != nil {
		logger.Warnf("Session rollback failed: %v", err)
		return exception.New(classify(err), moduleSession, "failed to roll back transaction", err)
	}
	return nil
}

// Close ends the session, rolling back any transaction still open. It is
// safe to defer alongside explicit Commit/Rollback calls.
func (s *Session) Close() error {
	var result *multierror.Error
	if s.tx != nil {
		if err := s.Rollback(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
