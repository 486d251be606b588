package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Monitor publishes written results to a directory watched by another
// application. The zero value publishes nothing.
type Monitor struct {
	Dir string
}

// Enabled reports whether a monitoring directory is configured.
func (m Monitor) Enabled() bool {
	return m.Dir != ""
}

// Publish copies the file at path into the monitoring directory as
// <uuid>_<base name> and returns the path of the copy. The copy is written
// under a temporary name and renamed so watchers never see a partial file.
func (m Monitor) Publish(path string) (string, error) {
	if !m.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", fmt.Errorf("workspace: create monitoring directory: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("workspace: open result: %w", err)
	}
	defer src.Close()

	dst := filepath.Join(m.Dir, uuid.NewString()+"_"+filepath.Base(path))
	tmp, err := os.CreateTemp(m.Dir, ".publish-*")
	if err != nil {
		return "", fmt.Errorf("workspace: create monitoring file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("workspace: copy result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("workspace: copy result: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("workspace: publish result: %w", err)
	}
	return dst, nil
}
