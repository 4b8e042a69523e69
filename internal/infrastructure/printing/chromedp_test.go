package printing

import (
	"context"
	"testing"
	"time"

	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildPrintParams(t *testing.T) {
	t.Run("A4 portrait with default margins", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{HTML: "<p>x</p>"})

		assert.InDelta(t, mmToInches(210), params.PaperWidth, 0.01)
		assert.InDelta(t, mmToInches(297), params.PaperHeight, 0.01)
		assert.InDelta(t, mmToInches(DefaultMargins.Top), params.MarginTop, 0.001)
		assert.False(t, params.Landscape)
		assert.True(t, params.PrintBackground)
		assert.False(t, params.DisplayHeaderFooter)
	})

	t.Run("letter landscape", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{HTML: "<p>x</p>", PaperSize: PaperLetter, Landscape: true})

		assert.InDelta(t, 8.5, params.PaperWidth, 0.01)
		assert.InDelta(t, 11.0, params.PaperHeight, 0.01)
		assert.True(t, params.Landscape)
	})

	t.Run("custom margins", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{
			HTML:    "<p>x</p>",
			Margins: &Margins{Top: 25.4, Right: 0, Bottom: 50.8, Left: 12.7},
		})

		assert.InDelta(t, 1.0, params.MarginTop, 0.001)
		assert.InDelta(t, 0.0, params.MarginRight, 0.001)
		assert.InDelta(t, 2.0, params.MarginBottom, 0.001)
		assert.InDelta(t, 0.5, params.MarginLeft, 0.001)
	})

	t.Run("footer reserves bottom margin", func(t *testing.T) {
		params := buildPrintParams(&RenderRequest{
			HTML:       "<p>x</p>",
			Margins:    &Margins{Bottom: 5},
			FooterHTML: `<span class="pageNumber"></span>`,
		})

		assert.True(t, params.DisplayHeaderFooter)
		assert.Contains(t, params.FooterTemplate, "pageNumber")
		assert.InDelta(t, mmToInches(12), params.MarginBottom, 0.001)
	})
}

func TestBuildDocument(t *testing.T) {
	t.Run("complete documents are untouched", func(t *testing.T) {
		for _, in := range []string{
			"<!DOCTYPE html><html><body>a</body></html>",
			"<HTML><body>b</body></HTML>",
		} {
			assert.Equal(t, in, buildDocument(&RenderRequest{HTML: in}))
		}
	})

	t.Run("fragments are wrapped with an escaped title", func(t *testing.T) {
		out := buildDocument(&RenderRequest{HTML: "<h1>Report</h1>", Title: "Q3 <draft>"})

		assert.Contains(t, out, "<!DOCTYPE html>")
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>Q3 &lt;draft&gt;</title>")
		assert.Contains(t, out, "<body><h1>Report</h1></body>")
	})
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.0001)
	assert.InDelta(t, 8.2677, mmToInches(210), 0.001)
	assert.Equal(t, 0.0, mmToInches(0))
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{Enabled: true, Timeout: time.Second}, zap.NewNop())
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "   "})

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestChromedpRenderer_Close(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{RemoteURL: "ws://127.0.0.1:9222"}, zap.NewNop())
	assert.Equal(t, defaultChromeTimeout, r.timeout)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}

func TestNew(t *testing.T) {
	r := New(config.PrintingConfig{Enabled: false}, zap.NewNop())
	_, err := r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, r.Close())

	r = New(config.PrintingConfig{Enabled: true}, zap.NewNop())
	assert.IsType(t, &ChromedpRenderer{}, r)
	assert.NoError(t, r.Close())
}

func TestRenderError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewRenderError(ErrCodeRenderTimeout, "PDF rendering timed out", cause)

	assert.Equal(t, "PDF rendering timed out: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "generated PDF is empty", NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil).Error())
}
