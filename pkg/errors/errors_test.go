package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"query", fmt.Errorf("parsing: %w", ErrInvalidQuery), ExitUsage},
		{"document", ErrInvalidDocument, ExitUsage},
		{"missing index", fmt.Errorf("opening: %w", ErrIndexNotFound), ExitIndex},
		{"locked", ErrIndexLocked, ExitIndex},
		{"corrupt", ErrIndexCorrupt, ExitIndex},
		{"config", fmt.Errorf("loading: %w", ErrInvalidConfig), ExitUsage},
		{"argument", ErrInvalidArgument, ExitUsage},
		{"other", fmt.Errorf("boom"), ExitFailure},
		{"app error wins", New(ErrInternal, 9, "custom"), 9},
		{"app error without code", New(ErrIndexLocked, 0, "busy"), ExitIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("building: %w", Newf(ErrIndexLocked, ExitIndex, "held by pid %d", 12))

	assert.True(t, Is(err, ErrIndexLocked))
	assert.Equal(t, "building: index is locked by another process: held by pid 12", err.Error())

	var appErr *AppError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, ExitIndex, appErr.ExitCode)
}
