// Package printing turns HTML reports into PDF documents.
package printing

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned when printing is switched off in configuration
var ErrDisabled = errors.New("printing is disabled")

// PaperSize names a supported sheet size
type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "LETTER"
)

// Dimensions returns width and height in millimetres; unknown sizes fall back to A4
func (p PaperSize) Dimensions() (width, height float64) {
	if p == PaperLetter {
		return 215.9, 279.4
	}
	return 210, 297
}

// Margins in millimetres
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins are used when a request leaves margins unset
var DefaultMargins = Margins{Top: 15, Right: 12, Bottom: 15, Left: 12}

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML       string
	Title      string
	PaperSize  PaperSize
	Landscape  bool
	Margins    *Margins
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult is the printed document
type RenderResult struct {
	PDF       []byte
	PageCount int
	Duration  time.Duration
}

// Renderer prints HTML to PDF
type Renderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// Error codes carried by RenderError
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// RenderError describes a failed render
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
