package database

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsernameBase(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Meera Bai", "meerabai"},
		{"  ", "seeker"},
		{"ॐ", "seeker"},
		{"Swami Vivekananda Dutta", "swamivivekan"},
		{"R2 D2", "r2d2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, generateUsernameBase(tt.name), tt.name)
	}
}

func TestGenerateUsername(t *testing.T) {
	re := regexp.MustCompile(`^meera\d{4}$`)
	for i := 0; i < 20; i++ {
		assert.Regexp(t, re, GenerateUsername("Meera"))
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}
