package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var migrationNameRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CreateSQLMigration writes an empty goose SQL migration named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path. It refuses
// to overwrite an existing file.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" || name == "" {
		return "", fmt.Errorf("migration dir and name are both required")
	}

	slug := migrationNameRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql",
		time.Now().UTC().Format("20060102150405"), slug))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration %s already exists", path)
	}

	var sb strings.Builder
	sb.WriteString("-- +goose Up\n-- +goose StatementBegin\n")
	fmt.Fprintf(&sb, "-- %s\n", slug)
	sb.WriteString("-- +goose StatementEnd\n\n")
	sb.WriteString("-- +goose Down\n-- +goose StatementBegin\n")
	fmt.Fprintf(&sb, "-- rollback %s\n", slug)
	sb.WriteString("-- +goose StatementEnd\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write migration %s: %w", path, err)
	}
	return path, nil
}
