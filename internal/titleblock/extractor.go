package titleblock

import (
    "context"
    "errors"
    "image"
    "strings"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/plandetect/internal/metrics"
    "github.com/local/plandetect/internal/pdfdoc"
)

// Options configure the high-zoom OCR pass.
type Options struct {
    Zoom     float64
    MaxWidth int
    Language string
    Timeout  time.Duration
}

// Extractor renders a page at high zoom, isolates the title-block region and
// runs OCR over it. All failures degrade to empty text; a page with no
// recoverable title-block text still proceeds through scoring.
type Extractor struct {
    engine Engine
    opts   Options
}

// New creates a title-block extractor backed by the given OCR engine.
func New(engine Engine, opts Options) *Extractor {
    return &Extractor{engine: engine, opts: opts}
}

// Extract returns the normalized (uppercase, single-spaced) title-block text
// of a page, or "" when rendering or OCR fails.
func (e *Extractor) Extract(ctx context.Context, doc pdfdoc.Document, page int) string {
    gray, err := doc.Render(page, e.opts.Zoom, e.opts.MaxWidth)
    if err != nil {
        log.Warn().Err(err).Int("page", page).Msg("title-block render failed")
        metrics.IncOCR("error")
        return ""
    }

    crop := cropTitleBlock(gray)
    if crop.Bounds().Dx() < minCropWidth {
        crop = pdfdoc.ScaleToWidth(crop, minCropWidth)
    }
    crop = otsuBinarize(gaussianBlur3(crop))

    text, err := e.recognize(ctx, crop)
    switch {
    case errors.Is(err, context.DeadlineExceeded):
        log.Warn().Int("page", page).Dur("timeout", e.opts.Timeout).Msg("title-block OCR timed out")
        metrics.IncOCR("timeout")
        return ""
    case err != nil:
        log.Warn().Err(err).Int("page", page).Msg("title-block OCR failed")
        metrics.IncOCR("error")
        return ""
    }

    norm := Normalize(text)
    if norm == "" {
        metrics.IncOCR("empty")
    } else {
        metrics.IncOCR("ok")
    }
    return norm
}

// recognize runs the OCR engine under the per-page time budget. The engine
// call itself cannot be interrupted; on timeout its result is abandoned.
func (e *Extractor) recognize(ctx context.Context, img *image.Gray) (string, error) {
    if e.opts.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
        defer cancel()
    }

    type result struct {
        text string
        err  error
    }
    ch := make(chan result, 1)
    go func() {
        text, err := e.engine.Recognize(img, e.opts.Language)
        ch <- result{text: text, err: err}
    }()

    select {
    case <-ctx.Done():
        return "", context.DeadlineExceeded
    case r := <-ch:
        return r.text, r.err
    }
}

// Normalize uppercases text and collapses whitespace runs to single spaces.
func Normalize(s string) string {
    return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
