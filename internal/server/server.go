package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "math"
    "net/http"
    "os"
    "strings"

    "github.com/gabriel-vasile/mimetype"
    "github.com/google/uuid"
    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog/log"

    "github.com/local/plandetect/internal/analyzer"
    "github.com/local/plandetect/internal/cache"
    "github.com/local/plandetect/internal/fetch"
    "github.com/local/plandetect/internal/limiter"
    "github.com/local/plandetect/internal/metrics"
    "github.com/local/plandetect/internal/pdfdoc"
)

// Analyzer is the detection core as seen by the transport layer.
type Analyzer interface {
    Analyze(ctx context.Context, path string, topK int, minScore float64) (analyzer.Result, error)
}

// ResultCache is the optional cache of finished runs.
type ResultCache interface {
    Key(digest string, topK int, minScore float64) string
    Get(ctx context.Context, key string) (analyzer.Result, bool, error)
    Set(ctx context.Context, key string, res analyzer.Result) error
}

// Options bound request handling.
type Options struct {
    MaxPDFMB float64
    TopK     int
    MinScore float64
    // MaxPages rejects absurdly large documents before analysis;
    // <= 0 disables the pre-check.
    MaxPages int
    // MaxInflight caps concurrent analyses; <= 0 disables the cap.
    MaxInflight int
}

// Server exposes the detection pipeline over HTTP.
type Server struct {
    an    Analyzer
    cache ResultCache // nil disables caching
    opts  Options
    slots *limiter.Slots // nil when MaxInflight <= 0

    // swappable for tests; defaults to pdfcpu
    countPages func(path string) (int, error)
}

// New creates the HTTP server layer. cache may be nil.
func New(an Analyzer, cache ResultCache, opts Options) *Server {
    s := &Server{an: an, cache: cache, opts: opts, countPages: api.PageCountFile}
    if opts.MaxInflight > 0 {
        s.slots = limiter.New(opts.MaxInflight)
    }
    return s
}

// RegisterRoutes mounts all endpoints on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", s.handleHealth)
    mux.Handle("/metrics", metrics.Handler())
    mux.HandleFunc("/detect_plan_fab_raw", s.handleDetectRaw)
    mux.HandleFunc("/detect_plan_fab", s.handleDetectUpload)
    mux.HandleFunc("/detect_plan_ref", s.handleDetectRef)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleDetectRaw accepts a raw PDF buffer as request body
// (Content-Type: application/pdf) and returns the ranked candidates.
func (s *Server) handleDetectRaw(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    reqID := uuid.NewString()
    w.Header().Set("X-Request-ID", reqID)

    ctype := strings.ToLower(r.Header.Get("Content-Type"))
    if !strings.Contains(ctype, "application/pdf") {
        http.Error(w, "Content-Type must be application/pdf", http.StatusUnsupportedMediaType)
        return
    }

    data, tooLarge, err := s.readLimited(r.Body)
    if err != nil {
        http.Error(w, "failed to read body", http.StatusBadRequest)
        return
    }
    if tooLarge {
        http.Error(w, fmt.Sprintf("File too large (>%.0fMB)", s.opts.MaxPDFMB), http.StatusRequestEntityTooLarge)
        return
    }
    if len(data) == 0 {
        http.Error(w, "Empty body.", http.StatusBadRequest)
        return
    }

    s.analyzeBytes(w, r, reqID, data)
}

// handleDetectUpload accepts a PDF as multipart/form-data under the "pdf" field.
func (s *Server) handleDetectUpload(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    reqID := uuid.NewString()
    w.Header().Set("X-Request-ID", reqID)

    if err := r.ParseMultipartForm(32 << 20); err != nil {
        http.Error(w, "invalid multipart form", http.StatusBadRequest)
        return
    }
    file, hdr, err := r.FormFile("pdf")
    if err != nil {
        http.Error(w, "missing pdf file", http.StatusBadRequest)
        return
    }
    defer file.Close()
    if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".pdf") {
        http.Error(w, "File must be a PDF (.pdf).", http.StatusBadRequest)
        return
    }

    data, tooLarge, err := s.readLimited(file)
    if err != nil {
        http.Error(w, "failed to read upload", http.StatusBadRequest)
        return
    }
    if tooLarge {
        http.Error(w, fmt.Sprintf("File too large (>%.0fMB)", s.opts.MaxPDFMB), http.StatusRequestEntityTooLarge)
        return
    }
    if len(data) == 0 {
        http.Error(w, "Empty file.", http.StatusBadRequest)
        return
    }

    // magic-byte check: the extension alone proves nothing
    if !mimetype.Detect(data).Is("application/pdf") {
        http.Error(w, "File content is not PDF", http.StatusBadRequest)
        return
    }

    s.analyzeBytes(w, r, reqID, data)
}

type refRequest struct {
    FilePath string   `json:"file_path"`
    TopK     *int     `json:"top_k,omitempty"`
    MinScore *float64 `json:"min_score,omitempty"`
}

// handleDetectRef accepts a JSON reference to a document reachable by path,
// file://, http(s):// or s3:// and analyzes it in place.
func (s *Server) handleDetectRef(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    reqID := uuid.NewString()
    w.Header().Set("X-Request-ID", reqID)

    defer r.Body.Close()
    var req refRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest)
        return
    }
    if req.FilePath == "" {
        http.Error(w, "missing file_path", http.StatusBadRequest)
        return
    }

    topK, minScore := s.opts.TopK, s.opts.MinScore
    if req.TopK != nil {
        topK = *req.TopK
    }
    if req.MinScore != nil {
        minScore = *req.MinScore
    }

    localPath, cleanup, err := fetch.Resolve(r.Context(), req.FilePath)
    if err != nil {
        log.Warn().Err(err).Str("request_id", reqID).Str("ref", req.FilePath).Msg("reference fetch failed")
        http.Error(w, "failed to fetch document", http.StatusBadGateway)
        return
    }
    defer cleanup()

    s.runAnalysis(w, r, reqID, localPath, "", topK, minScore)
}

// analyzeBytes stages the document bytes in a temp file and runs the pipeline,
// consulting the result cache when one is configured.
func (s *Server) analyzeBytes(w http.ResponseWriter, r *http.Request, reqID string, data []byte) {
    var digest string
    if s.cache != nil {
        digest = cache.Digest(data)
    }

    tmp, err := os.CreateTemp("", "plandetect-*.pdf")
    if err != nil {
        http.Error(w, "temp file error", http.StatusInternalServerError)
        return
    }
    tmpPath := tmp.Name()
    defer os.Remove(tmpPath)
    if _, err := tmp.Write(data); err != nil {
        tmp.Close()
        http.Error(w, "temp file error", http.StatusInternalServerError)
        return
    }
    tmp.Close()

    s.runAnalysis(w, r, reqID, tmpPath, digest, s.opts.TopK, s.opts.MinScore)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, reqID, path, digest string, topK int, minScore float64) {
    if s.opts.MaxPages > 0 {
        n, err := s.countPages(path)
        if err != nil {
            http.Error(w, "invalid or unreadable PDF", http.StatusBadRequest)
            return
        }
        if n > s.opts.MaxPages {
            http.Error(w, fmt.Sprintf("document has %d pages, limit is %d", n, s.opts.MaxPages), http.StatusRequestEntityTooLarge)
            return
        }
    }

    if s.cache != nil && digest != "" {
        key := s.cache.Key(digest, topK, minScore)
        if res, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
            metrics.IncCache("hit")
            log.Info().Str("request_id", reqID).Str("digest", digest).Msg("served from result cache")
            s.writeResult(w, res, topK, minScore)
            return
        } else if err != nil {
            metrics.IncCache("error")
            log.Warn().Err(err).Str("request_id", reqID).Msg("cache get failed")
        } else {
            metrics.IncCache("miss")
        }
    }

    if s.slots != nil {
        release, ok := s.slots.Allow()
        if !ok {
            http.Error(w, "too many concurrent analyses, retry later", http.StatusTooManyRequests)
            return
        }
        defer release()
    }

    res, err := s.an.Analyze(r.Context(), path, topK, minScore)
    if err != nil {
        var oe *pdfdoc.OpenError
        if errors.As(err, &oe) {
            log.Warn().Err(err).Str("request_id", reqID).Msg("document open failed")
            http.Error(w, "document cannot be opened as a PDF", http.StatusUnprocessableEntity)
            return
        }
        log.Error().Err(err).Str("request_id", reqID).Msg("analysis failed")
        http.Error(w, fmt.Sprintf("Processing error: %v", err), http.StatusInternalServerError)
        return
    }

    if s.cache != nil && digest != "" {
        key := s.cache.Key(digest, topK, minScore)
        if err := s.cache.Set(r.Context(), key, res); err != nil {
            metrics.IncCache("error")
            log.Warn().Err(err).Str("request_id", reqID).Msg("cache set failed")
        }
    }

    s.writeResult(w, res, topK, minScore)
}

type candidatePayload struct {
    Page          int     `json:"page"`
    Score         float64 `json:"score"`
    MedianLen     float64 `json:"median_len"`
    LongLineRatio float64 `json:"long_line_ratio"`
    NonAxialRatio float64 `json:"non_axial_ratio"`
    OCRExcerpt    string  `json:"ocr_excerpt"`
}

type detectResponse struct {
    BestPage   *int               `json:"best_page"`
    TopK       int                `json:"top_k"`
    MinScore   float64            `json:"min_score"`
    Candidates []candidatePayload `json:"candidates"`
}

func (s *Server) writeResult(w http.ResponseWriter, res analyzer.Result, topK int, minScore float64) {
    payload := detectResponse{
        TopK:       topK,
        MinScore:   minScore,
        Candidates: make([]candidatePayload, 0, len(res.Candidates)),
    }
    if res.HasBest {
        best := res.BestPage
        payload.BestPage = &best
    }
    for _, c := range res.Candidates {
        payload.Candidates = append(payload.Candidates, candidatePayload{
            Page:          c.Page,
            Score:         round(c.Score, 4),
            MedianLen:     round(c.MedianLen, 4),
            LongLineRatio: round(c.LongLineRatio, 6),
            NonAxialRatio: round(c.NonAxialRatio, 6),
            OCRExcerpt:    c.OCRExcerpt,
        })
    }

    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(payload)
}

// readLimited reads at most MaxPDFMB megabytes, reporting whether the input
// exceeded the limit.
func (s *Server) readLimited(rd io.Reader) ([]byte, bool, error) {
    limit := int64(s.opts.MaxPDFMB * 1024 * 1024)
    data, err := io.ReadAll(io.LimitReader(rd, limit+1))
    if err != nil {
        return nil, false, err
    }
    if int64(len(data)) > limit {
        return nil, true, nil
    }
    return data, false, nil
}

func round(v float64, digits int) float64 {
    p := math.Pow(10, float64(digits))
    return math.Round(v*p) / p
}
