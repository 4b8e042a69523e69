package printing

import (
	"context"

	"github.com/miv/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DisabledRenderer refuses every request with ErrDisabled
type DisabledRenderer struct{}

func (DisabledRenderer) Render(context.Context, *RenderRequest) (*RenderResult, error) {
	return nil, ErrDisabled
}

func (DisabledRenderer) Close() error { return nil }

// New returns the chromedp renderer, or a DisabledRenderer when printing is off
func New(cfg config.PrintingConfig, logger *zap.Logger) Renderer {
	if !cfg.Enabled {
		return DisabledRenderer{}
	}
	return NewChromedpRenderer(cfg, logger)
}
