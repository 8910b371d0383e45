package fetch

import (
    "context"
    "net/http"
    "net/http/httptest"
    "os"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestResolvePlainPath(t *testing.T) {
    p, cleanup, err := Resolve(context.Background(), "/tmp/some.pdf")
    require.NoError(t, err)
    defer cleanup()
    assert.Equal(t, "/tmp/some.pdf", p)
}

func TestResolveFileScheme(t *testing.T) {
    p, cleanup, err := Resolve(context.Background(), "file:///data/plan.pdf")
    require.NoError(t, err)
    defer cleanup()
    assert.Equal(t, "/data/plan.pdf", p)
}

func TestResolveStripsPageFragment(t *testing.T) {
    p, cleanup, err := Resolve(context.Background(), "/data/plan.pdf#page=3")
    require.NoError(t, err)
    defer cleanup()
    assert.Equal(t, "/data/plan.pdf", p)
}

func TestResolveHTTPDownloadsToTemp(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte("%PDF-1.4 payload"))
    }))
    defer srv.Close()

    p, cleanup, err := Resolve(context.Background(), srv.URL+"/doc.pdf")
    require.NoError(t, err)

    data, err := os.ReadFile(p)
    require.NoError(t, err)
    assert.Equal(t, "%PDF-1.4 payload", string(data))

    cleanup()
    _, err = os.Stat(p)
    assert.True(t, os.IsNotExist(err))
}

func TestResolveHTTPErrorStatus(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusNotFound)
    }))
    defer srv.Close()

    _, _, err := Resolve(context.Background(), srv.URL+"/missing.pdf")
    assert.Error(t, err)
}

func TestResolveInvalidS3URL(t *testing.T) {
    _, _, err := Resolve(context.Background(), "s3://bucketonly")
    assert.Error(t, err)
}
