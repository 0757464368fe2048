package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSQLiteConflictError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("SQLITE_BUSY: cannot commit"), want: true},
		{err: fmt.Errorf("insert: %w", errors.New("database is locked (5)")), want: true},
		{err: errors.New("UNIQUE constraint failed"), want: false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsSQLiteConflictError(tc.err), "IsSQLiteConflictError(%v)", tc.err)
	}
}
