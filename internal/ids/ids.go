package ids

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a random UUID used as a row primary key.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ObjectName returns a time-sortable object key that keeps the extension of
// the uploaded file name.
func ObjectName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return ksuid.New().String() + ext
}

// Sortable returns a bare ksuid string.
func Sortable() string {
	return ksuid.New().String()
}
