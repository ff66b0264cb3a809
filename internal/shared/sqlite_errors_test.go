package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSQLiteConflictError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"busy", errors.New("SQLITE_BUSY: database table is locked"), true},
		{"locked", errors.New("database is locked (5)"), true},
		{"wrapped busy", fmt.Errorf("insert conversation: %w", errors.New("SQLITE_BUSY")), true},
		{"unrelated", errors.New("no such table: conversations"), false},
	}
	for _, tc := range tests {
		if got := IsSQLiteConflictError(tc.err); got != tc.want {
			t.Errorf("%s: IsSQLiteConflictError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
