package score

import "sort"

// Candidate is the per-page record of computed features and heuristic score.
// It is immutable once produced.
type Candidate struct {
    Page          int     `json:"page"`
    Score         float64 `json:"score"`
    MedianLen     float64 `json:"median_len"`
    LongLineRatio float64 `json:"long_line_ratio"`
    NonAxialRatio float64 `json:"non_axial_ratio"`
    OCRExcerpt    string  `json:"ocr_excerpt"`
}

// Rank filters out candidates below minScore, sorts the rest by descending
// score (stable, so ties keep their original page order), truncates to topK
// and returns the best page. ok is false when nothing qualifies.
func Rank(candidates []Candidate, topK int, minScore float64) (bestPage int, ok bool, ranked []Candidate) {
    ranked = make([]Candidate, 0, len(candidates))
    for _, c := range candidates {
        if c.Score >= minScore {
            ranked = append(ranked, c)
        }
    }

    sort.SliceStable(ranked, func(i, j int) bool {
        return ranked[i].Score > ranked[j].Score
    })

    if topK > 0 && len(ranked) > topK {
        ranked = ranked[:topK]
    }
    if len(ranked) == 0 {
        return 0, false, ranked
    }
    return ranked[0].Page, true, ranked
}
