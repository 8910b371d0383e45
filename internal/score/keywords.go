package score

import "strings"

// Keyword weights for title-block text. Positive terms are drafting,
// ownership, tolerance and scale markers found in fabrication-plan title
// blocks; negative terms mark calculation and specification pages. The maps
// are fixed configuration data and must not be mutated at runtime.
var (
    positiveKeywords = map[string]float64{
        "DESSINE":   4.0,
        "DEMANDEUR": 2.5,
        "CLIENT":    2.0,
        "APPAREIL":  1.5,
        "DOSSIER":   1.0,
        "ECHELLE":   2.0,
        "INDICE":    1.0,
        "TOL":       1.0,
        "NUANCE":    0.5,
        "SECTION":   0.5,
        "COUPE":     0.5,
    }

    negativeKeywords = map[string]float64{
        "CALCUL":                  2.0,
        "CONTRAINTE":              2.0,
        "DONNEES PREVISIONNELLES": 2.0,
        "INJECTER":                1.0,
        "ETANCHEITE":              1.0,
        "DIAGRAMME":               1.0,
    }
)

// Keywords scores normalized (already uppercased) text against the weighted
// dictionaries: sum of positive occurrences times weight minus the negative
// equivalent. Occurrences are plain substring counts; multi-word terms match
// only with their exact internal spacing.
func Keywords(text string) float64 {
    var s float64
    for kw, w := range positiveKeywords {
        s += float64(strings.Count(text, kw)) * w
    }
    for kw, w := range negativeKeywords {
        s -= float64(strings.Count(text, kw)) * w
    }
    return s
}
