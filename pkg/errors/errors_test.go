package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "loading symbol")
	require.Error(t, err)
	assert.True(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "loading symbol")
}

func TestWrapfPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrInvalidConfig, "atr_period must be >= 1, got %d", 0)
	require.Error(t, err)
	assert.True(t, Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "got 0")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInternal,
		ErrInvalidConfig, ErrUnorderedBars, ErrUnknownDetector,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v should not match %v", a, b)
		}
	}
}

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestAsUnwrapsChain(t *testing.T) {
	err := Wrap(&codedError{code: 42}, "outer")

	var coded *codedError
	require.True(t, As(err, &coded))
	assert.Equal(t, 42, coded.code)
}
