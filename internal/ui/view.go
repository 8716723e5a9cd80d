package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"hoffenc/internal/model"
	"hoffenc/internal/progress"
	"hoffenc/internal/util/format"
)

func (m Model) View() string {
	header := m.styles.Title.Render("hoffenc · hardware-aware encoder")
	switch m.phase {
	case phaseForm:
		return header + "\n\n" + m.form.view(m.styles)
	case phaseRunning:
		return header + "\n" + m.viewProgressHeader() + "\n\n" + m.viewFiles()
	}
	return header + "\n" + m.viewProgressHeader() + "\n\n" + m.viewFiles() + "\n" + m.viewSummary()
}

func (m Model) viewProgressHeader() string {
	total := len(m.order)
	var hint string
	switch {
	case m.phase == phaseDone:
		hint = "q: quit"
	case m.cancelling:
		hint = m.styles.Warning.Render("cancelling...")
	default:
		hint = "c: cancel • q: cancel and quit"
	}
	cur := m.current
	if cur == 0 && total > 0 && m.phase == phaseRunning {
		cur = 1
	}
	overall := m.overall
	if m.phase == phaseDone && m.report.OK() {
		overall = 100
	}
	line := fmt.Sprintf("File %d/%d • %s", cur, total, hint)
	return m.styles.Subtitle.Render(line) + "\n" + fmt.Sprintf("%s %5.1f%%", m.bar.ViewAs(overall/100), overall)
}

func (m Model) viewFiles() string {
	var b strings.Builder
	for _, id := range m.order {
		b.WriteString(m.viewFile(m.files[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFile(f *fileState) string {
	stageStyle := m.styles.JobInfo
	switch f.stage {
	case progress.StageProbing, progress.StageBuilding:
		stageStyle = m.styles.StageProbe
	case progress.StageEncoding:
		stageStyle = m.styles.StageEnc
	case progress.StageRetrying, progress.StageCancelled:
		stageStyle = m.styles.StageRetry
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(filepath.Base(f.job.Input), 48))
	stage := stageStyle.Render(string(f.stage))

	var right string
	switch {
	case f.done && f.err == nil && f.stage == progress.StageCompleted:
		right = m.styles.Success.Render("✓ " + format.HumanizeBytes(f.bytes))
	case f.err != nil:
		right = m.styles.Error.Render("✗ failed")
	case f.stage == progress.StageCancelled:
		right = m.styles.Warning.Render("cancelled")
	case f.indeterminate || (f.percent < 0 && f.stage != ""):
		right = m.spinner.View() + " " + m.styles.Faint.Render("working")
	case f.percent >= 0:
		right = fmt.Sprintf("%s %5.1f%%", f.bar.ViewAs(f.percent/100.0), f.percent)
		if f.speed != "" {
			right += " " + m.styles.Faint.Render(f.speed)
		}
	default:
		right = m.styles.Faint.Render("waiting")
	}

	lines := []string{fmt.Sprintf("%s  %s", left, stage), right, m.styles.JobInfo.Render(f.status)}
	if f.lastLog != "" && !f.done && m.phase == phaseRunning {
		lines = append(lines, m.styles.Faint.Render(truncate(f.lastLog, 80)))
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

func (m Model) viewSummary() string {
	r := m.report
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("%d succeeded • %d failed • %d cancelled • %d skipped",
		r.Count(model.StatusSucceeded), r.Count(model.StatusFailed),
		r.Count(model.StatusCancelled), r.Count(model.StatusSkipped))))
	b.WriteString("\n")
	for _, fr := range r.Results {
		if fr.Status == model.StatusSucceeded {
			b.WriteString(m.styles.Success.Render("  • " + fr.Job.Output))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
