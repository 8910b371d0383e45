package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    "github.com/local/plandetect/internal/analyzer"
    "github.com/local/plandetect/internal/cache"
    cfgpkg "github.com/local/plandetect/internal/config"
    logpkg "github.com/local/plandetect/internal/logger"
    "github.com/local/plandetect/internal/metrics"
    "github.com/local/plandetect/internal/pdfdoc"
    "github.com/local/plandetect/internal/server"
    "github.com/local/plandetect/internal/titleblock"
)

func main() {
    _ = godotenv.Load()

    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Detection pipeline
    extractor := titleblock.New(titleblock.NewTesseractEngine(), titleblock.Options{
        Zoom:     cfg.OCR.Zoom,
        MaxWidth: cfg.OCR.MaxWidth,
        Language: cfg.OCR.Language,
        Timeout:  cfg.OCR.Timeout,
    })
    an := analyzer.New(pdfdoc.FitzOpener{}, extractor, analyzer.Options{
        GeometryZoom:     cfg.Geometry.Zoom,
        GeometryMaxWidth: cfg.Geometry.MaxWidth,
        Concurrency:      cfg.Analysis.Concurrency,
    })

    // Result cache (optional)
    var rc server.ResultCache
    if cfg.Cache.RedisURL != "" {
        c, err := cache.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to connect to redis result cache")
        }
        defer c.Close()
        rc = c
    }

    srvLayer := server.New(an, rc, server.Options{
        MaxPDFMB: cfg.Server.MaxPDFMB,
        TopK:     cfg.Analysis.TopK,
        MinScore: cfg.Analysis.MinScore,
        MaxPages:    cfg.Analysis.MaxPages,
        MaxInflight: cfg.Analysis.MaxInflight,
    })
    mux := http.NewServeMux()
    srvLayer.RegisterRoutes(mux)

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
