package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    documentsAnalyzed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "plandetect",
            Name:      "documents_analyzed_total",
            Help:      "Total documents analyzed by result (success, open_error)",
        },
        []string{"result"},
    )

    analyzeDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "plandetect",
            Name:      "analyze_duration_seconds",
            Help:      "Duration of full-document analysis runs",
            Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
        },
    )

    pagesAnalyzed = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "plandetect",
            Name:      "pages_analyzed_total",
            Help:      "Total pages run through the scoring pipeline",
        },
    )

    ocrOutcomes = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "plandetect",
            Name:      "ocr_outcomes_total",
            Help:      "Title-block OCR outcomes (ok, empty, timeout, error)",
        },
        []string{"outcome"},
    )

    candidateScores = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "plandetect",
            Name:      "candidate_score",
            Help:      "Per-page plan scores across all analyzed pages",
            Buckets:   []float64{-5, -2, 0, 1, 2, 3, 5, 8, 12, 20},
        },
    )

    cacheEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "plandetect",
            Name:      "cache_events_total",
            Help:      "Result cache events (hit, miss, error)",
        },
        []string{"event"},
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(documentsAnalyzed, analyzeDuration, pagesAnalyzed, ocrOutcomes, candidateScores, cacheEvents)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveAnalyze(result string, dur time.Duration) {
    documentsAnalyzed.WithLabelValues(result).Inc()
    analyzeDuration.Observe(dur.Seconds())
}

func IncPage()                 { pagesAnalyzed.Inc() }
func IncOCR(outcome string)    { ocrOutcomes.WithLabelValues(outcome).Inc() }
func ObserveScore(s float64)   { candidateScores.Observe(s) }
func IncCache(event string)    { cacheEvents.WithLabelValues(event).Inc() }
