package report

import (
	"fmt"
	"os"
	"path/filepath"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
)

var _ output.ScreenshotStore = (*ScreenshotFiles)(nil)

// ScreenshotFiles stores shots as <dir>/<session>_step<NN>.jpg and
// <dir>/<session>_error.jpg.
type ScreenshotFiles struct {
	dir string
}

func NewScreenshotFiles(dir string) *ScreenshotFiles {
	return &ScreenshotFiles{dir: dir}
}

func (s *ScreenshotFiles) Save(sessionID string, stepIndex int, shot *entity.Screenshot) (string, error) {
	if shot == nil || len(shot.Data) == 0 {
		return "", fmt.Errorf("empty screenshot")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(s.dir, FileName(sessionID, stepIndex, shot.Format))
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func FileName(sessionID string, stepIndex int, format string) string {
	ext := format
	switch ext {
	case "", "jpeg":
		ext = "jpg"
	}
	if stepIndex < 0 {
		return fmt.Sprintf("%s_error.%s", sessionID, ext)
	}
	return fmt.Sprintf("%s_step%02d.%s", sessionID, stepIndex+1, ext)
}
