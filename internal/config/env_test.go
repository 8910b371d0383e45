package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
    cfg := FromEnv()

    assert.Equal(t, 1.2, cfg.Geometry.Zoom)
    assert.Equal(t, 1400, cfg.Geometry.MaxWidth)
    assert.Equal(t, 2.5, cfg.OCR.Zoom)
    assert.Equal(t, 2200, cfg.OCR.MaxWidth)
    assert.Equal(t, "fra", cfg.OCR.Language)
    assert.Equal(t, 12*time.Second, cfg.OCR.Timeout)
    assert.Equal(t, 5, cfg.Analysis.TopK)
    assert.Equal(t, 1.0, cfg.Analysis.MinScore)
    assert.Equal(t, 35.0, cfg.Server.MaxPDFMB)
    assert.Greater(t, cfg.Analysis.Concurrency, 0)
    assert.Equal(t, 4, cfg.Analysis.MaxInflight)
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("TOP_K", "3")
    t.Setenv("MIN_SCORE", "2.5")
    t.Setenv("OCR_LANG", "eng")
    t.Setenv("OCR_TIMEOUT", "5s")
    t.Setenv("GEOMETRY_MAX_WIDTH", "800")

    cfg := FromEnv()

    assert.Equal(t, 3, cfg.Analysis.TopK)
    assert.Equal(t, 2.5, cfg.Analysis.MinScore)
    assert.Equal(t, "eng", cfg.OCR.Language)
    assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
    assert.Equal(t, 800, cfg.Geometry.MaxWidth)
}

func TestParseHelpersFallBackOnGarbage(t *testing.T) {
    t.Setenv("TOP_K", "not-a-number")
    t.Setenv("MIN_SCORE", "zzz")
    t.Setenv("OCR_TIMEOUT", "soon")

    cfg := FromEnv()

    assert.Equal(t, 5, cfg.Analysis.TopK)
    assert.Equal(t, 1.0, cfg.Analysis.MinScore)
    assert.Equal(t, 12*time.Second, cfg.OCR.Timeout)
}
