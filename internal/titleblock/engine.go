package titleblock

import (
    "bytes"
    "fmt"
    "image"
    "image/png"

    "github.com/otiai10/gosseract/v2"
)

// Engine abstracts the OCR backend so tests can swap in a fake.
type Engine interface {
    Recognize(img *image.Gray, language string) (string, error)
}

// TesseractEngine runs OCR through gosseract. A fresh client is created per
// call; gosseract clients are not safe for concurrent use.
type TesseractEngine struct {
    clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
    return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Recognize(img *image.Gray, language string) (string, error) {
    var buf bytes.Buffer
    if err := png.Encode(&buf, img); err != nil {
        return "", fmt.Errorf("encode crop: %w", err)
    }

    c := e.clientFactory()
    defer c.Close()

    if language != "" {
        if err := c.SetLanguage(language); err != nil {
            return "", fmt.Errorf("set language: %w", err)
        }
    }
    // Sparse segmentation: title blocks are boxed short lines, not prose.
    if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
        return "", fmt.Errorf("set page seg mode: %w", err)
    }
    if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
        return "", fmt.Errorf("set image: %w", err)
    }

    text, err := c.Text()
    if err != nil {
        return "", fmt.Errorf("recognize text: %w", err)
    }
    return text, nil
}
