package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	apperrors "github.com/gradebench/gradebench/internal/errors"
	"github.com/gradebench/gradebench/internal/normalize"
)

const (
	// maxFilenameLen bounds the sanitized download filename, suffix included.
	maxFilenameLen = 100
	// fallbackFilename is used when sanitization leaves nothing usable.
	fallbackFilename = "report.pdf"
)

// ShareServiceOptions groups dependencies for ShareService.
type ShareServiceOptions struct {
	Tokens      core.ShareTokenRepository // Required: token resolution
	Evaluations core.EvaluationRepository // Required: report loading
	Projects    core.ProjectRepository    // Required: project/version labels
	Logger      *slog.Logger              // Optional: structured logger
}

// ShareService resolves opaque share tokens into public report snapshots and
// renders them as PDFs. Token possession is authorization: resolution
// bypasses the ownership guard entirely. Malformed and unknown tokens are
// indistinguishable to callers, and a malformed token never reaches the store.
type ShareService struct {
	tokens      core.ShareTokenRepository
	evaluations core.EvaluationRepository
	projects    core.ProjectRepository
	logger      *slog.Logger
}

// NewShareService constructs a new ShareService.
func NewShareService(opts ShareServiceOptions) (*ShareService, error) {
	if opts.Tokens == nil {
		return nil, errors.New("ShareTokenRepository is required")
	}
	if opts.Evaluations == nil {
		return nil, errors.New("EvaluationRepository is required")
	}
	if opts.Projects == nil {
		return nil, errors.New("ProjectRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "share_service")
	}

	return &ShareService{
		tokens:      opts.Tokens,
		evaluations: opts.Evaluations,
		projects:    opts.Projects,
		logger:      logger,
	}, nil
}

// MustNewShareService constructs a new ShareService and panics on error.
func MustNewShareService(opts ShareServiceOptions) *ShareService {
	svc, err := NewShareService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast during startup
		panic(fmt.Sprintf("failed to create ShareService: %v", err))
	}
	return svc
}

// Resolve returns the report snapshot behind a token. The format precheck
// runs before any lookup, so short or malformed tokens never hit the store.
func (s *ShareService) Resolve(ctx context.Context, token string) (*model.SharedReport, error) {
	if !model.ValidShareToken(token) {
		return nil, apperrors.NotFound("unknown share token")
	}

	st, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, data.ErrShareTokenNotFound) {
			return nil, apperrors.NotFound("unknown share token")
		}
		return nil, fmt.Errorf("resolve share token: %w", err)
	}

	ev, err := s.evaluations.GetByID(ctx, st.EvaluationID)
	if err != nil {
		if errors.Is(err, data.ErrEvaluationNotFound) {
			// Token outlived its evaluation. Treat as unknown.
			return nil, apperrors.NotFound("unknown share token")
		}
		return nil, fmt.Errorf("load shared evaluation: %w", err)
	}

	snapshot := &model.SharedReport{Report: normalize.Report(ev)}

	if project, perr := s.projects.GetProject(ctx, st.ProjectID); perr == nil {
		snapshot.ProjectName = project.Name
	}
	if version, verr := s.projects.GetVersion(ctx, ev.VersionID); verr == nil {
		snapshot.VersionLabel = version.Label
	}
	return snapshot, nil
}

// RenderPDF resolves the token and renders its report as a PDF document.
// Fails NotReady until the report reaches a terminal state.
func (s *ShareService) RenderPDF(ctx context.Context, token string) ([]byte, string, error) {
	snapshot, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if !snapshot.Report.Status.Terminal() {
		return nil, "", apperrors.NotReady("report is not finished yet")
	}

	doc, err := renderReportPDF(snapshot)
	if err != nil {
		return nil, "", fmt.Errorf("render report pdf: %w", err)
	}

	name := SanitizeFilename(snapshot.ProjectName + " " + snapshot.VersionLabel + ".pdf")
	return doc, name, nil
}

// SanitizeFilename produces a safe download filename: control characters and
// quotes are stripped, every other run of characters outside [A-Za-z0-9._-]
// collapses to a single underscore, the result is length-bounded and always
// carries a .pdf suffix. An empty result falls back to "report.pdf".
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsControl(r) || r == '"' || r == '\'':
			// Dropped entirely: header-splitting characters leave no trace.
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	out = strings.TrimSuffix(out, ".pdf")
	out = strings.Trim(out, "._")
	if out == "" {
		return fallbackFilename
	}
	if len(out) > maxFilenameLen-len(".pdf") {
		out = out[:maxFilenameLen-len(".pdf")]
		out = strings.Trim(out, "._")
	}
	return out + ".pdf"
}

// renderReportPDF lays the snapshot out as a single-column document.
func renderReportPDF(snapshot *model.SharedReport) ([]byte, error) {
	report := snapshot.Report

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Evaluation Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	title := strings.TrimSpace(snapshot.ProjectName)
	if title == "" {
		title = "Evaluation Report"
	}
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if snapshot.VersionLabel != "" {
		pdf.CellFormat(0, 6, "Version: "+snapshot.VersionLabel, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Kind: %s    Status: %s", report.Kind, report.Status), "", 1, "L", false, 0, "")
	if report.OverallScore != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Overall score: %.1f", *report.OverallScore), "", 1, "L", false, 0, "")
	}
	if report.FailureReason != nil {
		pdf.CellFormat(0, 6, "Failure: "+*report.FailureReason, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if report.Summary != "" {
		writePDFSection(pdf, "Summary", []string{report.Summary})
	}
	if len(report.CategoryScores) > 0 {
		lines := make([]string, 0, len(report.CategoryScores))
		for _, cs := range report.CategoryScores {
			lines = append(lines, fmt.Sprintf("%s: %.0f", cs.Category, cs.Score))
		}
		writePDFSection(pdf, "Category Scores", lines)
	}
	if len(report.ActionItems) > 0 {
		lines := make([]string, 0, len(report.ActionItems))
		for _, item := range report.ActionItems {
			line := fmt.Sprintf("[%s] %s", item.Priority, item.Title)
			if item.Detail != "" {
				line += " - " + item.Detail
			}
			lines = append(lines, line)
		}
		writePDFSection(pdf, "Action Items", lines)
	}
	writePDFSection(pdf, "Strengths", report.Strengths)
	writePDFSection(pdf, "Risks", report.Risks)
	writePDFSection(pdf, "Notes", report.Notes)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDFSection(pdf *fpdf.Fpdf, heading string, lines []string) {
	if len(lines) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	pdf.Ln(2)
}
