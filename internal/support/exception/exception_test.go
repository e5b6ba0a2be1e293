package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mgfn/skycast/internal/support/exception"
)

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	cause := errors.New("socket closed")
	err := exception.New(exception.KindUnavailable, "repository", "commit failed", cause)
	wrapped := fmt.Errorf("request aborted: %w", err)

	assert.Equal(t, exception.KindUnavailable, exception.KindOf(wrapped))
	assert.True(t, exception.IsUnavailable(wrapped))
	assert.True(t, exception.IsRetryable(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestKindOfDefaultsToInternalStorage(t *testing.T) {
	assert.Equal(t, exception.KindInternalStorage, exception.KindOf(errors.New("plain")))
	assert.False(t, exception.IsRetryable(errors.New("plain")))
}

func TestErrorStringCarriesModuleAndKind(t *testing.T) {
	err := exception.Newf(exception.KindNotFound, "service.file", "file '%s' not found", "abc")
	assert.Contains(t, err.Error(), "service.file")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "file 'abc' not found")
}

func TestKindHelpers(t *testing.T) {
	assert.True(t, exception.IsInvalidArgument(exception.Newf(exception.KindInvalidArgument, "m", "x")))
	assert.True(t, exception.IsNotFound(exception.Newf(exception.KindNotFound, "m", "x")))
	assert.True(t, exception.IsConstraintViolation(exception.Newf(exception.KindConstraintViolation, "m", "x")))
	assert.False(t, exception.IsNotFound(nil))
}
