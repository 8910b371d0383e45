package geometry

import (
    "image"
    "sort"

    "github.com/rs/zerolog/log"
)

const (
    // Canny hysteresis thresholds on gradient magnitude
    CannyLow  = 60.0
    CannyHigh = 180.0

    // Probabilistic Hough parameters at the analysis zoom
    HoughThreshold = 110
    MinLineLength  = 80
    MaxLineGap     = 10

    // A segment is axial if its folded angle is within this tolerance
    // of horizontal or vertical
    AxialToleranceDeg = 8.0

    // Segments longer than this are counted as long lines (page borders,
    // table rules), in pixels at the analysis zoom
    LongLineLength = 400.0
)

// Stats aggregates the geometric line features of one page raster.
type Stats struct {
    LineCount     int
    MedianLen     float64
    LongLineRatio float64
    NonAxialRatio float64
}

// Analyze computes line statistics for a grayscale page raster. A page with
// no detectable segments yields the zero Stats, never an error.
func Analyze(gray *image.Gray) Stats {
    edges := DetectEdges(gray, CannyLow, CannyHigh)
    segments := DetectSegments(edges, HoughParams{
        Threshold:     HoughThreshold,
        MinLineLength: MinLineLength,
        MaxLineGap:    MaxLineGap,
    })
    st := Aggregate(segments)

    log.Debug().
        Int("lines", st.LineCount).
        Float64("median_len", st.MedianLen).
        Float64("long_ratio", st.LongLineRatio).
        Float64("non_axial_ratio", st.NonAxialRatio).
        Msg("line features computed")

    return st
}

// Aggregate reduces a segment set to its Stats record.
func Aggregate(segments []Segment) Stats {
    if len(segments) == 0 {
        return Stats{}
    }

    lengths := make([]float64, len(segments))
    long, axial := 0, 0
    for i, s := range segments {
        lengths[i] = s.Length()
        if lengths[i] > LongLineLength {
            long++
        }
        a := s.Angle()
        if a < AxialToleranceDeg || 90-a < AxialToleranceDeg {
            axial++
        }
    }

    n := float64(len(segments))
    return Stats{
        LineCount:     len(segments),
        MedianLen:     median(lengths),
        LongLineRatio: float64(long) / n,
        NonAxialRatio: 1 - float64(axial)/n,
    }
}

func median(v []float64) float64 {
    sort.Float64s(v)
    mid := len(v) / 2
    if len(v)%2 == 1 {
        return v[mid]
    }
    return (v[mid-1] + v[mid]) / 2
}
