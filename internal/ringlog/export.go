package ringlog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harshul/stackdash/internal/fsutil"
)

// DefaultExportPrefix names exported files when no prefix is configured.
const DefaultExportPrefix = "stackdash_logs"

// Render writes the retained entries as text with a generation header.
func (r *RingLog) Render(generated time.Time) string {
	var b strings.Builder
	b.WriteString("# stackdash logs\n")
	b.WriteString(fmt.Sprintf("# Generated: %s\n\n", generated.Format(time.RFC3339)))
	for _, e := range r.All() {
		b.WriteString(e.Format())
		b.WriteByte('\n')
	}
	return b.String()
}

// Export writes the buffer to <dir>/<prefix>_YYYYMMDD_HHMMSS.txt and returns
// the path. The file is replaced atomically.
func (r *RingLog) Export(dir, prefix string, now time.Time) (string, error) {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	if dir == "" {
		dir = "."
	}

	name := fmt.Sprintf("%s_%s.txt", prefix, now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := fsutil.AtomicWriteFile(path, []byte(r.Render(now)), 0o644); err != nil {
		return "", fmt.Errorf("export logs: %w", err)
	}
	return path, nil
}
