package analyzer

import (
    "context"
    "runtime"
    "sync"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/plandetect/internal/geometry"
    "github.com/local/plandetect/internal/metrics"
    "github.com/local/plandetect/internal/pdfdoc"
    "github.com/local/plandetect/internal/score"
)

// ocr_excerpt is truncated to this many runes for display.
const excerptLimit = 140

// TitleBlockExtractor yields normalized title-block text for one page,
// degrading to "" on any page-local failure.
type TitleBlockExtractor interface {
    Extract(ctx context.Context, doc pdfdoc.Document, page int) string
}

// Options tune the geometry rendering pass and page-level parallelism.
type Options struct {
    GeometryZoom     float64
    GeometryMaxWidth int
    Concurrency      int
}

// Result is the outcome of one analysis run.
type Result struct {
    BestPage   int               `json:"best_page"`
    HasBest    bool              `json:"-"`
    Candidates []score.Candidate `json:"candidates"`
}

// Analyzer runs the per-page scoring pipeline over a document and ranks the
// resulting candidates. Pages are independent: each worker holds its own
// document handle and no state is shared across pages.
type Analyzer struct {
    opener pdfdoc.Opener
    tb     TitleBlockExtractor
    opts   Options
}

// New creates an Analyzer. Concurrency defaults to the CPU core count.
func New(opener pdfdoc.Opener, tb TitleBlockExtractor, opts Options) *Analyzer {
    if opts.Concurrency <= 0 {
        opts.Concurrency = runtime.NumCPU()
    }
    if opts.GeometryZoom <= 0 {
        opts.GeometryZoom = 1.2
    }
    if opts.GeometryMaxWidth <= 0 {
        opts.GeometryMaxWidth = 1400
    }
    return &Analyzer{opener: opener, tb: tb, opts: opts}
}

// Analyze scores every page of the document at path and returns the ranked
// shortlist. The only fatal error is a document that cannot be opened; all
// per-page failures degrade to zero/empty signal for that page.
func (a *Analyzer) Analyze(ctx context.Context, path string, topK int, minScore float64) (Result, error) {
    start := time.Now()

    doc, err := a.opener.Open(path)
    if err != nil {
        metrics.ObserveAnalyze("open_error", time.Since(start))
        return Result{}, err
    }
    total := doc.NumPages()
    _ = doc.Close()

    candidates := make([]score.Candidate, total)
    if total > 0 {
        workers := a.opts.Concurrency
        if workers > total {
            workers = total
        }

        pages := make(chan int)
        var wg sync.WaitGroup
        for w := 0; w < workers; w++ {
            wg.Add(1)
            go func() {
                defer wg.Done()
                a.runWorker(ctx, path, pages, candidates)
            }()
        }
        for p := 1; p <= total; p++ {
            pages <- p
        }
        close(pages)
        wg.Wait()
    }

    best, ok, ranked := score.Rank(candidates, topK, minScore)

    dur := time.Since(start)
    metrics.ObserveAnalyze("success", dur)
    log.Info().
        Str("path", path).
        Int("pages", total).
        Int("candidates", len(ranked)).
        Int("best_page", best).
        Dur("duration", dur).
        Msg("document analyzed")

    return Result{BestPage: best, HasBest: ok, Candidates: ranked}, nil
}

// runWorker opens its own document handle (go-fitz handles are not safe for
// concurrent use) and scores pages from the channel. Handle-open failure here
// is page-local: affected pages score on zero features.
func (a *Analyzer) runWorker(ctx context.Context, path string, pages <-chan int, out []score.Candidate) {
    doc, err := a.opener.Open(path)
    if err != nil {
        log.Warn().Err(err).Str("path", path).Msg("worker document open failed; pages degrade to zero signal")
        doc = nil
    } else {
        defer doc.Close()
    }

    for page := range pages {
        out[page-1] = a.analyzePage(ctx, doc, page)
    }
}

// analyzePage computes one PlanCandidate. The raster is transient: it is
// released as soon as the page's features are computed.
func (a *Analyzer) analyzePage(ctx context.Context, doc pdfdoc.Document, page int) score.Candidate {
    var st geometry.Stats
    var text string

    if doc != nil {
        gray, err := doc.Render(page, a.opts.GeometryZoom, a.opts.GeometryMaxWidth)
        if err != nil {
            log.Warn().Err(err).Int("page", page).Msg("geometry render failed; zero geometric signal")
        } else {
            st = geometry.Analyze(gray)
        }
        text = a.tb.Extract(ctx, doc, page)
    }

    s := score.Plan(st, text)
    metrics.IncPage()
    metrics.ObserveScore(s)

    log.Debug().
        Int("page", page).
        Float64("score", s).
        Float64("median_len", st.MedianLen).
        Msg("page scored")

    return score.Candidate{
        Page:          page,
        Score:         s,
        MedianLen:     st.MedianLen,
        LongLineRatio: st.LongLineRatio,
        NonAxialRatio: st.NonAxialRatio,
        OCRExcerpt:    truncate(text, excerptLimit),
    }
}

func truncate(s string, limit int) string {
    r := []rune(s)
    if len(r) <= limit {
        return s
    }
    return string(r[:limit])
}
