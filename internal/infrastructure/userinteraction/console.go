package userinteraction

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	out io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsoleUserInteractionTo(os.Stdout)
}

// NewConsoleUserInteractionTo writes to w instead of stdout.
func NewConsoleUserInteractionTo(w io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{out: w}
}

func (u *ConsoleUserInteraction) ShowCommand(ctx context.Context, cmd *entity.ParsedCommand, goal *entity.GoalMatch) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Instruction ━━━\n")

	dim := color.New(color.Faint)
	target := cmd.URL()
	if target == "" {
		target = "(none)"
	}
	dim.Fprintf(u.out, "   Target: %s\n", target)
	if goal != nil {
		dim.Fprintf(u.out, "   Goal:   %s (%.2f, %s)\n", goal.Goal, goal.Confidence, goal.Method)
	}
	for _, f := range cmd.FormData.Fields() {
		dim.Fprintf(u.out, "   %-7s %s\n", f.Name+":", truncate(f.Value, 60))
	}
	if cmd.SearchQuery != "" {
		dim.Fprintf(u.out, "   Search: %s\n", truncate(cmd.SearchQuery, 60))
	}
}

func (u *ConsoleUserInteraction) ShowPlan(ctx context.Context, plan *entity.TaskPlan) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Plan: %s → %s ━━━\n", plan.TaskType, plan.ExpectedOutcome)

	dim := color.New(color.Faint)
	for i, step := range plan.Steps {
		marker := ""
		if step.Optional {
			marker = " (optional)"
		}
		dim.Fprintf(u.out, "   %2d. %s%s\n", i+1, step.Label(), marker)
	}
}

func (u *ConsoleUserInteraction) ShowStepStart(ctx context.Context, index int, step *entity.TaskStep) {
	icon, name := getStepDisplay(step.Type)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n%s %s\n", icon, name)

	if summary := formatStepParams(step); summary != "" {
		dim := color.New(color.Faint)
		dim.Fprintf(u.out, "   %s\n", summary)
	}
}

func (u *ConsoleUserInteraction) ShowStepResult(ctx context.Context, result entity.StepResult) {
	if !result.Success {
		red := color.New(color.FgRed)
		red.Fprint(u.out, "❌ Error: ")

		dim := color.New(color.Faint)
		fmt.Fprintln(u.out, dim.Sprint(truncate(result.Error, 300)))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintf(u.out, "✓ %s\n", formatStepResult(result))
}

func (u *ConsoleUserInteraction) ShowCaptchaNotice(ctx context.Context, message string) {
	magenta := color.New(color.FgMagenta, color.Bold)
	magenta.Fprintf(u.out, "\n[USER ACTION REQUIRED] %s\n", message)
}

func (u *ConsoleUserInteraction) ShowReport(ctx context.Context, report *entity.RunReport) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Result ━━━\n")

	if report.Success {
		color.New(color.FgGreen, color.Bold).Fprintln(u.out, "✅ SUCCESS")
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(u.out, "❌ FAILURE")
	}

	dim := color.New(color.Faint)
	if report.Error != "" {
		dim.Fprintf(u.out, "   Error:      %s\n", truncate(report.Error, 300))
	}
	if report.FinalURL != "" {
		dim.Fprintf(u.out, "   Final URL:  %s\n", report.FinalURL)
	}
	if v := report.Validation; v != nil {
		dim.Fprintf(u.out, "   Validation: %s (score %.2f)\n", v.Status, v.Score)
		for _, r := range v.Recommendations {
			dim.Fprintf(u.out, "     • %s\n", r)
		}
	}
	if report.CaptchaFlow {
		dim.Fprintf(u.out, "   CAPTCHA:    visible-mode recovery was used\n")
	}
	dim.Fprintf(u.out, "   Duration:   %s\n", report.Duration.Round(1e6))
	if report.LogPath != "" {
		dim.Fprintf(u.out, "   Log:        %s\n", report.LogPath)
	}
	if report.ReportPath != "" {
		dim.Fprintf(u.out, "   Report:     %s\n", report.ReportPath)
	}
	if report.ScreenshotPath != "" {
		dim.Fprintf(u.out, "   Screenshot: %s\n", report.ScreenshotPath)
	}
}

func getStepDisplay(t entity.StepType) (string, string) {
	displays := map[entity.StepType][2]string{
		entity.StepNavigate:   {"🌐", "Navigate"},
		entity.StepResolve:    {"🧭", "Resolve target page"},
		entity.StepAnalyze:    {"👁️", "Analyze page"},
		entity.StepWait:       {"⏸️", "Wait"},
		entity.StepSearch:     {"🔎", "Search"},
		entity.StepFillField:  {"✏️", "Fill field"},
		entity.StepFillForm:   {"✏️", "Fill form"},
		entity.StepClick:      {"🖱️", "Click"},
		entity.StepSubmit:     {"📨", "Submit"},
		entity.StepExtract:    {"📋", "Extract"},
		entity.StepVerify:     {"🔍", "Verify"},
		entity.StepScreenshot: {"📸", "Screenshot"},
	}

	if display, ok := displays[t]; ok {
		return display[0], display[1]
	}
	return "🔧", string(t)
}

func formatStepParams(step *entity.TaskStep) string {
	switch step.Type {
	case entity.StepNavigate:
		return fmt.Sprintf("URL: %s", step.Param("url"))
	case entity.StepResolve:
		return fmt.Sprintf("Goal: %s", step.Param("goal"))
	case entity.StepFillField:
		return fmt.Sprintf("Field: %s → %s", step.Param("field"), truncate(step.Param("value"), 30))
	case entity.StepSearch:
		return fmt.Sprintf("Query: %s", truncate(step.Param("query"), 50))
	case entity.StepClick:
		return fmt.Sprintf("Selector: %s", truncate(step.Param("selector"), 60))
	case entity.StepExtract:
		return fmt.Sprintf("Kind: %s", step.Param("kind"))
	case entity.StepWait:
		return step.Param("duration")
	}
	return ""
}

func formatStepResult(result entity.StepResult) string {
	suffix := ""
	if result.UsedFallback {
		suffix = " (fallback)"
	}

	d := result.Data
	switch result.Type {
	case entity.StepNavigate:
		if result.Attempts > 1 {
			return fmt.Sprintf("%v after %d attempts%s", d["final_url"], result.Attempts, suffix)
		}
		if u, ok := d["final_url"]; ok {
			return fmt.Sprintf("%v%s", u, suffix)
		}
	case entity.StepResolve:
		if resolved, _ := d["resolved"].(bool); resolved {
			return fmt.Sprintf("%v via %v", d["url"], d["method"])
		}
		return "No better page found, staying here"
	case entity.StepAnalyze:
		return fmt.Sprintf("Forms: %v, fields: %v", d["forms"], d["fields"])
	case entity.StepExtract:
		if n, ok := d["count"]; ok {
			return fmt.Sprintf("Items: %v", n)
		}
		if title, ok := d["title"].(string); ok && title != "" {
			return fmt.Sprintf("Content: %s", truncate(title, 80))
		}
	case entity.StepVerify:
		return fmt.Sprintf("%v (%v)", d["reason"], d["matched"])
	case entity.StepScreenshot:
		if p, ok := d["path"]; ok {
			return fmt.Sprintf("Saved %v", p)
		}
		return "Screenshot taken"
	}

	if len(d) == 0 {
		return "Done" + suffix
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d[k]))
	}
	return truncate(strings.Join(parts, " "), 100) + suffix
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
