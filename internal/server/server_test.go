package server

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/plandetect/internal/analyzer"
    "github.com/local/plandetect/internal/pdfdoc"
    "github.com/local/plandetect/internal/score"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

type fakeAnalyzer struct {
    res      analyzer.Result
    err      error
    calls    int
    topK     int
    minScore float64
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, topK int, minScore float64) (analyzer.Result, error) {
    f.calls++
    f.topK, f.minScore = topK, minScore
    return f.res, f.err
}

type fakeCache struct {
    stored map[string]analyzer.Result
    gets   int
    sets   int
}

func newFakeCache() *fakeCache {
    return &fakeCache{stored: map[string]analyzer.Result{}}
}

func (f *fakeCache) Key(digest string, topK int, minScore float64) string {
    return digest
}

func (f *fakeCache) Get(_ context.Context, key string) (analyzer.Result, bool, error) {
    f.gets++
    res, ok := f.stored[key]
    return res, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, res analyzer.Result) error {
    f.sets++
    f.stored[key] = res
    return nil
}

func newTestServer(an Analyzer, c ResultCache) *Server {
    return New(an, c, Options{MaxPDFMB: 1, TopK: 5, MinScore: 1.0})
}

func planResult() analyzer.Result {
    return analyzer.Result{
        BestPage: 2,
        HasBest:  true,
        Candidates: []score.Candidate{
            {Page: 2, Score: 7.123456, MedianLen: 120.55555, LongLineRatio: 0.1234567, NonAxialRatio: 0.0111119, OCRExcerpt: "DESSINE PAR"},
        },
    }
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
    mux := http.NewServeMux()
    s.RegisterRoutes(mux)
    rec := httptest.NewRecorder()
    mux.ServeHTTP(rec, req)
    return rec
}

func TestHealth(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDetectRawRejectsWrongContentType(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "text/plain")
    rec := serve(s, req)
    assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDetectRawRejectsEmptyBody(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(nil))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectRawRejectsOversizedBody(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    big := bytes.Repeat([]byte{0x25}, 1<<20+1)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(big))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDetectRawMethodNotAllowed(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    rec := serve(s, httptest.NewRequest(http.MethodGet, "/detect_plan_fab_raw", nil))
    assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDetectRawSuccessShapesResponse(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    s := newTestServer(an, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

    var resp struct {
        BestPage   *int    `json:"best_page"`
        TopK       int     `json:"top_k"`
        MinScore   float64 `json:"min_score"`
        Candidates []struct {
            Page          int     `json:"page"`
            Score         float64 `json:"score"`
            MedianLen     float64 `json:"median_len"`
            LongLineRatio float64 `json:"long_line_ratio"`
            NonAxialRatio float64 `json:"non_axial_ratio"`
            OCRExcerpt    string  `json:"ocr_excerpt"`
        } `json:"candidates"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    require.NotNil(t, resp.BestPage)
    assert.Equal(t, 2, *resp.BestPage)
    assert.Equal(t, 5, resp.TopK)
    assert.Equal(t, 1.0, resp.MinScore)
    require.Len(t, resp.Candidates, 1)
    assert.Equal(t, 7.1235, resp.Candidates[0].Score)
    assert.Equal(t, 120.5556, resp.Candidates[0].MedianLen)
    assert.Equal(t, 0.123457, resp.Candidates[0].LongLineRatio)
    assert.Equal(t, 0.011112, resp.Candidates[0].NonAxialRatio)
    assert.Equal(t, "DESSINE PAR", resp.Candidates[0].OCRExcerpt)
}

func TestDetectRawNoBestIsNull(t *testing.T) {
    an := &fakeAnalyzer{res: analyzer.Result{Candidates: []score.Candidate{}}}
    s := newTestServer(an, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"best_page":null`)
    assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}

func TestDetectRawOpenErrorMapsTo422(t *testing.T) {
    an := &fakeAnalyzer{err: &pdfdoc.OpenError{Path: "x", Err: errors.New("boom")}}
    s := newTestServer(an, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDetectRawGenericErrorMapsTo500(t *testing.T) {
    an := &fakeAnalyzer{err: errors.New("boom")}
    s := newTestServer(an, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDetectRawPageLimit(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    s := New(an, nil, Options{MaxPDFMB: 1, TopK: 5, MinScore: 1.0, MaxPages: 10})
    s.countPages = func(string) (int, error) { return 50, nil }
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
    assert.Zero(t, an.calls)
}

func TestDetectRawInvalidPDFRejectedByPageCount(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    s := New(an, nil, Options{MaxPDFMB: 1, TopK: 5, MinScore: 1.0, MaxPages: 10})
    s.countPages = func(string) (int, error) { return 0, errors.New("not a pdf") }
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
    req.Header.Set("Content-Type", "application/pdf")
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
    t.Helper()
    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    fw, err := mw.CreateFormFile(field, filename)
    require.NoError(t, err)
    _, err = fw.Write(content)
    require.NoError(t, err)
    require.NoError(t, mw.Close())
    return &buf, mw.FormDataContentType()
}

func TestDetectUploadSuccess(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    s := newTestServer(an, nil)
    body, ctype := multipartBody(t, "pdf", "drawing.pdf", pdfBytes)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab", body)
    req.Header.Set("Content-Type", ctype)
    rec := serve(s, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, an.calls)
}

func TestDetectUploadRejectsWrongExtension(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    body, ctype := multipartBody(t, "pdf", "drawing.docx", pdfBytes)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab", body)
    req.Header.Set("Content-Type", ctype)
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectUploadRejectsNonPDFContent(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    body, ctype := multipartBody(t, "pdf", "drawing.pdf", []byte("just some text, no magic"))
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab", body)
    req.Header.Set("Content-Type", ctype)
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectUploadRejectsMissingField(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    body, ctype := multipartBody(t, "other", "drawing.pdf", pdfBytes)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab", body)
    req.Header.Set("Content-Type", ctype)
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectRefRequiresFilePath(t *testing.T) {
    s := newTestServer(&fakeAnalyzer{}, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_ref", strings.NewReader(`{}`))
    rec := serve(s, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectRefAnalyzesLocalPath(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    s := newTestServer(an, nil)
    req := httptest.NewRequest(http.MethodPost, "/detect_plan_ref",
        strings.NewReader(`{"file_path":"/tmp/some.pdf","top_k":3,"min_score":2.5}`))
    rec := serve(s, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, an.calls)
    assert.Equal(t, 3, an.topK)
    assert.Equal(t, 2.5, an.minScore)
}

type blockingAnalyzer struct {
    entered chan struct{}
    release chan struct{}
}

func (b *blockingAnalyzer) Analyze(_ context.Context, _ string, _ int, _ float64) (analyzer.Result, error) {
    close(b.entered)
    <-b.release
    return planResult(), nil
}

func TestDetectRawRejectsWhenSaturated(t *testing.T) {
    an := &blockingAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
    s := New(an, nil, Options{MaxPDFMB: 1, TopK: 5, MinScore: 1.0, MaxInflight: 1})

    post := func() *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
        req.Header.Set("Content-Type", "application/pdf")
        return serve(s, req)
    }

    done := make(chan *httptest.ResponseRecorder)
    go func() { done <- post() }()
    <-an.entered

    rec := post()
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)

    close(an.release)
    first := <-done
    assert.Equal(t, http.StatusOK, first.Code)
}

func TestDetectRawServesFromCache(t *testing.T) {
    an := &fakeAnalyzer{res: planResult()}
    c := newFakeCache()
    s := newTestServer(an, c)

    post := func() *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodPost, "/detect_plan_fab_raw", bytes.NewReader(pdfBytes))
        req.Header.Set("Content-Type", "application/pdf")
        return serve(s, req)
    }

    rec1 := post()
    require.Equal(t, http.StatusOK, rec1.Code)
    assert.Equal(t, 1, an.calls)
    assert.Equal(t, 1, c.sets)

    rec2 := post()
    require.Equal(t, http.StatusOK, rec2.Code)
    assert.Equal(t, 1, an.calls, "second request should be served from cache")
    assert.Equal(t, rec1.Body.String(), rec2.Body.String())
}
