package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected embedded migrations")
	}
	seen := map[string]int{}
	for _, name := range entries {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			seen[strings.TrimSuffix(name, ".up.sql")]++
		case strings.HasSuffix(name, ".down.sql"):
			seen[strings.TrimSuffix(name, ".down.sql")]--
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	for version, balance := range seen {
		if balance != 0 {
			t.Errorf("migration %s is missing its up or down file", version)
		}
	}
}
