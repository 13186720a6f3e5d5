package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinelConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"property", NewInvalidPropertyError("bad property %q", "X31"), ErrInvalidProperty, `bad property "X31"`},
		{"reference", NewMalformedReferenceError("bad reference %q", "Q"), ErrMalformedReference, `bad reference "Q"`},
		{"label kind", NewInvalidLabelKindError("unknown kind %q", "nick"), ErrInvalidLabelKind, `unknown kind "nick"`},
		{"not found", NewNotFoundError("entry %d", 7), ErrNotFound, "entry 7"},
		{"invalid request", NewInvalidRequestError("bad id %q", "C"), ErrInvalidRequest, `bad id "C"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, Is(tt.err, tt.sentinel))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestNewEntryNotValidError(t *testing.T) {
	err := NewEntryNotValidError("source id is empty", "Entry(scraper=3, source=\"\")")

	assert.True(t, Is(err, ErrEntryNotValid))
	details := GetAllDetails(err)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "scraper=3")
	assert.Contains(t, fmt.Sprintf("%+v", err), "scraper=3")
}

func TestMarkStorage(t *testing.T) {
	t.Run("keeps driver error", func(t *testing.T) {
		err := MarkStorage(sql.ErrConnDone, "insert revision")

		assert.True(t, IsStorageUnavailable(err))
		assert.True(t, Is(err, sql.ErrConnDone))
		assert.Contains(t, err.Error(), "insert revision")
	})

	t.Run("formatted", func(t *testing.T) {
		err := MarkStoragef(New("disk I/O error"), "intern text %d", 12)

		assert.True(t, IsStorageUnavailable(err))
		assert.Contains(t, err.Error(), "intern text 12")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MarkStorage(nil, "noop"))
		assert.NoError(t, MarkStoragef(nil, "noop %d", 1))
		assert.False(t, IsStorageUnavailable(nil))
	})
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFoundError(Wrap(ErrNotFound, "revision 4")))
	assert.False(t, IsNotFoundError(New("something else")))
	assert.False(t, IsNotFoundError(nil))

	assert.True(t, IsInvalidRequestError(Wrap(ErrInvalidRequest, "ids")))
	assert.False(t, IsInvalidRequestError(ErrNotFound))
}

func TestAssertionFailed(t *testing.T) {
	err := AssertionFailedf("unhandled value %T", 3)
	assert.True(t, IsAssertionFailure(err))
}
