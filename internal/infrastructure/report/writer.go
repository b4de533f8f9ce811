package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
)

//go:embed report.md.tmpl
var markdownTemplate string

var _ output.ReportWriter = (*Writer)(nil)

// Writer renders run reports to <dir>/<session>.md and <dir>/<session>.json.
type Writer struct {
	dir  string
	tmpl *template.Template
}

func NewWriter(dir string) (*Writer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"inc":      func(i int) int { return i + 1 },
		"duration": formatDuration,
		"status":   stepStatus,
		"details":  stepDetails,
		"json":     indentJSON,
	}).Parse(markdownTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Writer{dir: dir, tmpl: tmpl}, nil
}

// Write returns the path of the Markdown report.
func (w *Writer) Write(report *entity.RunReport) (string, error) {
	if report == nil || report.SessionID == "" {
		return "", fmt.Errorf("report without session id")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	mdPath := filepath.Join(w.dir, report.SessionID+".md")

	// ReportPath is known before rendering so both files carry it.
	snapshot := *report
	snapshot.ReportPath = mdPath

	md, err := w.Render(&snapshot)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(mdPath, md, 0o644); err != nil {
		return "", fmt.Errorf("write markdown report: %w", err)
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, report.SessionID+".json"), data, 0o644); err != nil {
		return "", fmt.Errorf("write json report: %w", err)
	}

	return mdPath, nil
}

func (w *Writer) Render(report *entity.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func stepStatus(r entity.StepResult) string {
	switch {
	case r.Success && r.UsedFallback:
		return "ok (fallback)"
	case r.Success:
		return "ok"
	case strings.HasPrefix(r.Error, "skipped"):
		return "skipped"
	default:
		return "failed"
	}
}

func stepDetails(r entity.StepResult) string {
	if r.Error != "" {
		return escapeCell(r.Error)
	}
	if r.ScreenshotPath != "" {
		return escapeCell(r.ScreenshotPath)
	}

	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(r.Data[k])
		if len(v) > 80 {
			v = v[:80] + "..."
		}
		parts = append(parts, k+"="+v)
	}
	return escapeCell(strings.Join(parts, ", "))
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
