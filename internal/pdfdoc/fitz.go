package pdfdoc

import (
    "fmt"
    "image"

    fitz "github.com/gen2brain/go-fitz"
    "github.com/rs/zerolog/log"
)

const baseDPI = 72.0

// FitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Document, error) {
    doc, err := fitz.New(path)
    if err != nil {
        return nil, &OpenError{Path: path, Err: err}
    }
    return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
    doc *fitz.Document
}

func (d *fitzDocument) NumPages() int { return d.doc.NumPage() }

func (d *fitzDocument) Render(page int, zoom float64, maxWidth int) (*image.Gray, error) {
    if page < 1 || page > d.doc.NumPage() {
        return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.doc.NumPage())
    }
    // go-fitz uses 0-based indexing
    img, err := d.doc.ImageDPI(page-1, zoom*baseDPI)
    if err != nil {
        return nil, fmt.Errorf("render page %d: %w", page, err)
    }

    gray := ToGray(img)
    if maxWidth > 0 && gray.Bounds().Dx() > maxWidth {
        gray = ScaleToWidth(gray, maxWidth)
    }

    log.Debug().
        Int("page", page).
        Float64("zoom", zoom).
        Int("width", gray.Bounds().Dx()).
        Int("height", gray.Bounds().Dy()).
        Msg("rendered page to grayscale")

    return gray, nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
