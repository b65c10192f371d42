package manifest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"validation", NewValidationError("version", "version is required"), IsValidation, true},
		{"permission", NewPermissionError("/box/.boxsync", errors.New("denied")), IsPermission, true},
		{"corruption", NewCorruptionError("/box/.boxsync/manifest.json", "bad json"), IsCorruption, true},
		{"io", NewIOError("src/app.go", errors.New("disk full")), IsIO, true},
		{"wrapped keeps its code", fmt.Errorf("syncing: %w", NewIOError("a", errors.New("x"))), IsIO, true},
		{"code does not cross predicates", NewIOError("a", errors.New("x")), IsCorruption, false},
		{"plain error matches nothing", errors.New("plain"), IsValidation, false},
		{"nil", nil, IsPermission, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.err))
		})
	}
}

func TestError_MessageCarriesContext(t *testing.T) {
	err := NewValidationError("name", "name is required")
	assert.Contains(t, err.Error(), `field "name"`)

	ioErr := NewIOError("src/app.go", errors.New("disk full"))
	assert.Contains(t, ioErr.Error(), "src/app.go")
	assert.Contains(t, ioErr.Error(), "disk full")
}
