package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes artifacts into a data directory.
type FileSink struct {
	dir string
}

// NewFileSink returns a FileSink rooted at dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

func (f *FileSink) Write(ctx context.Context, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
