package report

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	documentapp "github.com/miv/backend/internal/application/document"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/shared/valueobject"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/printing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/venture_report.html
var ventureReportTemplate string

// ErrPrintingDisabled is returned when no PDF renderer is configured
var ErrPrintingDisabled = shared.NewDomainError(shared.ErrServiceUnavailable.Code, "PDF printing is disabled")

// DocumentStore uploads generated files and records them as documents
type DocumentStore interface {
	Store(ctx context.Context, d *document.Document, data []byte) (*documentapp.DocumentResponse, error)
}

var _ DocumentStore = (*documentapp.DocumentService)(nil)

// VentureReportService prints venture one-pagers and files them as impact reports
type VentureReportService struct {
	ventures  venture.VentureRepository
	metrics   venture.GEDSIMetricRepository
	documents document.DocumentRepository
	store     DocumentStore
	renderer  printing.Renderer
	tmpl      *template.Template
	maxBytes  int64
	logger    *zap.Logger
	now       func() time.Time
}

// NewVentureReportService parses the report template for the given locale.
// An unknown locale falls back to English.
func NewVentureReportService(
	ventures venture.VentureRepository,
	metrics venture.GEDSIMetricRepository,
	documents document.DocumentRepository,
	store DocumentStore,
	renderer printing.Renderer,
	locale string,
	maxBytes int64,
	logger *zap.Logger,
) (*VentureReportService, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("Unknown report locale, using English", zap.String("locale", locale))
		tag = language.English
	}
	tmpl, err := template.New("venture_report").Funcs(reportFuncs(tag)).Parse(ventureReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse venture report template: %w", err)
	}
	return &VentureReportService{
		ventures:  ventures,
		metrics:   metrics,
		documents: documents,
		store:     store,
		renderer:  renderer,
		tmpl:      tmpl,
		maxBytes:  maxBytes,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func reportFuncs(tag language.Tag) template.FuncMap {
	p := message.NewPrinter(tag)
	return template.FuncMap{
		"money": func(m valueobject.Money) string { return m.Format(tag) },
		"number": func(n int) string {
			return p.Sprintf("%d", n)
		},
		"score": func(d decimal.Decimal) string {
			f, _ := d.Round(1).Float64()
			return p.Sprintf("%.1f", f)
		},
		"percent": func(d decimal.Decimal) string {
			f, _ := d.Mul(decimal.NewFromInt(100)).Round(0).Float64()
			return p.Sprintf("%.0f%%", f)
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2 Jan 2006")
		},
	}
}

type reportData struct {
	Venture      *venture.Venture
	Sought       valueobject.Money
	Raised       valueobject.Money
	Gap          valueobject.Money
	GEDSI        venture.GEDSIScore
	DueDiligence venture.DueDiligenceScore
	Metrics      []*venture.GEDSIMetric
	Documents    []*document.Document
	GeneratedAt  time.Time
}

// Generate prints the venture report and stores it as an uploaded IMPACT_REPORT document
func (s *VentureReportService) Generate(ctx context.Context, ventureID uuid.UUID, actor *uuid.UUID) (*documentapp.DocumentResponse, error) {
	if _, ok := s.renderer.(printing.DisabledRenderer); ok {
		return nil, ErrPrintingDisabled
	}

	v, err := s.ventures.FindByID(ctx, ventureID)
	if err != nil {
		return nil, shared.NotFoundOr(err, "Venture")
	}
	html, err := s.renderHTML(ctx, v)
	if err != nil {
		return nil, err
	}

	generated := s.now()
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:       html,
		Title:      v.Name + " impact report",
		PaperSize:  printing.PaperA4,
		FooterHTML: fmt.Sprintf(`<span>%s</span>`, template.HTMLEscapeString(v.Name)),
	})
	if err != nil {
		if errors.Is(err, printing.ErrDisabled) {
			return nil, ErrPrintingDisabled
		}
		return nil, fmt.Errorf("render venture report: %w", err)
	}

	pages := result.PageCount
	if pages == 0 {
		if pages, err = printing.PageCount(result.PDF); err != nil {
			s.logger.Warn("Could not count report pages", zap.String("venture_id", v.ID.String()), zap.Error(err))
		}
	}

	name := fmt.Sprintf("%s impact report %s.pdf", v.Name, generated.Format("2006-01-02"))
	d, err := document.NewDocument(&v.ID, name, document.TypeImpactReport, "application/pdf", int64(len(result.PDF)), s.maxBytes, actor)
	if err != nil {
		return nil, err
	}
	d.PageCount = pages

	resp, err := s.store.Store(ctx, d, result.PDF)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Venture report generated",
		zap.String("venture_id", v.ID.String()),
		zap.String("document_id", resp.ID.String()),
		zap.Int("pages", pages),
		zap.Duration("render", result.Duration))
	return resp, nil
}

func (s *VentureReportService) renderHTML(ctx context.Context, v *venture.Venture) (string, error) {
	metrics, err := s.metrics.FindByVenture(ctx, v.ID)
	if err != nil {
		return "", err
	}
	docs, err := s.documents.FindByVenture(ctx, v.ID)
	if err != nil {
		return "", err
	}

	uploaded := make([]*document.Document, 0, len(docs))
	var types []string
	for _, d := range docs {
		if !d.IsUploaded() {
			continue
		}
		uploaded = append(uploaded, d)
		types = append(types, string(d.Type))
	}

	gedsi := venture.ScoreGEDSI(v, metrics)
	data := reportData{
		Venture:      v,
		Sought:       v.Sought(),
		Raised:       v.Raised(),
		Gap:          v.FundingGap(),
		GEDSI:        gedsi,
		DueDiligence: venture.ScoreDueDiligence(v, metrics, types, gedsi),
		Metrics:      metrics,
		Documents:    uploaded,
		GeneratedAt:  s.now().UTC(),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute venture report template: %w", err)
	}
	return buf.String(), nil
}
