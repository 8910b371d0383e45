package score

import (
    "math"

    "github.com/local/plandetect/internal/geometry"
)

// Plan scoring constants. Drawings are dominated by many short construction
// lines, so shorter-than-baseline medians are rewarded; long lines are mostly
// borders and table rules and are penalized; non-axial presence (dimension
// lines, hatching) is rewarded with a capped contribution.
const (
    medianBaseline = 220.0
    medianDivisor  = 40.0
    longLineWeight = 6.0
    nonAxialWeight = 10.0
    nonAxialCap    = 2.0
)

// Plan combines the geometric line statistics and normalized title-block
// text into the heuristic plan-plausibility score for one page.
func Plan(st geometry.Stats, ocrText string) float64 {
    s := math.Max(0, (medianBaseline-st.MedianLen)/medianDivisor)
    s -= st.LongLineRatio * longLineWeight
    s += math.Min(nonAxialCap, st.NonAxialRatio*nonAxialWeight)
    s += Keywords(ocrText)
    return s
}
