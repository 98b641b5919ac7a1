package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"cproof/internal/core/errors"
	"cproof/internal/core/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))
)

// Format renders a terminal pipeline result for humans.
func Format(res pipeline.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cproof verification"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("run %s completed in %v", res.RunID, res.Elapsed.Round(time.Millisecond))))
	b.WriteString("\n\n")

	switch res.Status {
	case pipeline.StatusDone:
		formatVerification(&b, res)
	case pipeline.StatusCancelled:
		b.WriteString(warnStyle.Render("⚠ Verification cancelled"))
		b.WriteString("\n")
	case pipeline.StatusFailed:
		formatFailure(&b, res)
	}

	if res.AnnotatedPath != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("annotated source kept at " + res.AnnotatedPath))
		b.WriteString("\n")
	}

	return b.String()
}

func formatVerification(b *strings.Builder, res pipeline.Result) {
	v := res.Verification
	if v == nil {
		b.WriteString(warnStyle.Render("⚠ Completed without a verification result"))
		b.WriteString("\n")
		return
	}

	if v.Verified {
		b.WriteString(successStyle.Render("✅ Verified: no issues found"))
		b.WriteString("\n")
		return
	}

	b.WriteString(failStyle.Render(fmt.Sprintf("❌ Not verified: %d issue(s)", len(v.Errors))))
	b.WriteString("\n")
	for _, e := range v.Errors {
		loc := ""
		switch {
		case e.File != "" && e.Line > 0:
			loc = fmt.Sprintf("%s:%d", e.File, e.Line)
		case e.Line > 0:
			loc = fmt.Sprintf("line %d", e.Line)
		}
		if loc != "" {
			b.WriteString(fmt.Sprintf("   %s %s\n", locationStyle.Render(loc), e.Message))
		} else {
			b.WriteString(fmt.Sprintf("   %s\n", e.Message))
		}
	}
}

func formatFailure(b *strings.Builder, res pipeline.Result) {
	e := res.Err
	if e == nil {
		b.WriteString(failStyle.Render("❌ Verification failed"))
		b.WriteString("\n")
		return
	}

	b.WriteString(failStyle.Render("❌ " + headline(e.Kind)))
	b.WriteString("\n")
	b.WriteString("   " + e.Message + "\n")
	if e.File != "" {
		b.WriteString("   " + locationStyle.Render(e.File) + "\n")
	}
	if hint := hintFor(e.Kind); hint != "" {
		b.WriteString("   " + statusStyle.Render(hint) + "\n")
	}
}

func headline(kind errors.ErrorCode) string {
	switch kind {
	case errors.CodeResolution:
		return "Dependency resolution failed"
	case errors.CodeSize:
		return "Source exceeds the size limit"
	case errors.CodeAnnotator:
		return "Annotation service failed"
	case errors.CodeVerifier:
		return "Verification service failed"
	case errors.CodeValidation:
		return "Input rejected"
	default:
		return "Internal error"
	}
}

func hintFor(kind errors.ErrorCode) string {
	switch kind {
	case errors.CodeResolution:
		return "check that every local #include resolves inside the project root"
	case errors.CodeAnnotator, errors.CodeVerifier:
		return "check that the service is running and reachable"
	default:
		return ""
	}
}
