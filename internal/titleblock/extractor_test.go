package titleblock

import (
    "context"
    "errors"
    "image"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

type fakeEngine struct {
    text  string
    err   error
    delay time.Duration
}

func (f *fakeEngine) Recognize(img *image.Gray, language string) (string, error) {
    if f.delay > 0 {
        time.Sleep(f.delay)
    }
    return f.text, f.err
}

type fakeDoc struct {
    width, height int
    renderErr     error
}

func (d *fakeDoc) NumPages() int { return 1 }

func (d *fakeDoc) Render(page int, zoom float64, maxWidth int) (*image.Gray, error) {
    if d.renderErr != nil {
        return nil, d.renderErr
    }
    img := image.NewGray(image.Rect(0, 0, d.width, d.height))
    for i := range img.Pix {
        img.Pix[i] = 255
    }
    return img, nil
}

func (d *fakeDoc) Close() error { return nil }

func TestExtractNormalizesEngineOutput(t *testing.T) {
    e := New(&fakeEngine{text: "  Dessine par\n\n  Dupont   echelle 1:50 "}, Options{Zoom: 2.5})
    got := e.Extract(context.Background(), &fakeDoc{width: 800, height: 600}, 1)
    assert.Equal(t, "DESSINE PAR DUPONT ECHELLE 1:50", got)
}

func TestExtractEngineErrorYieldsEmpty(t *testing.T) {
    e := New(&fakeEngine{err: errors.New("tesseract exploded")}, Options{Zoom: 2.5})
    got := e.Extract(context.Background(), &fakeDoc{width: 800, height: 600}, 1)
    assert.Equal(t, "", got)
}

func TestExtractTimeoutYieldsEmpty(t *testing.T) {
    e := New(&fakeEngine{text: "TOO LATE", delay: 200 * time.Millisecond}, Options{
        Zoom:    2.5,
        Timeout: 20 * time.Millisecond,
    })
    got := e.Extract(context.Background(), &fakeDoc{width: 800, height: 600}, 1)
    assert.Equal(t, "", got)
}

func TestExtractRenderErrorYieldsEmpty(t *testing.T) {
    e := New(&fakeEngine{text: "NEVER CALLED"}, Options{Zoom: 2.5})
    got := e.Extract(context.Background(), &fakeDoc{renderErr: errors.New("broken page")}, 1)
    assert.Equal(t, "", got)
}

func TestNormalize(t *testing.T) {
    assert.Equal(t, "A B C", Normalize("a\t b \n c"))
    assert.Equal(t, "", Normalize("   \n\t "))
    assert.Equal(t, "ECHELLE 1:50", Normalize("Echelle 1:50"))
}

func TestCropTitleBlockBounds(t *testing.T) {
    gray := image.NewGray(image.Rect(0, 0, 1000, 800))
    crop := cropTitleBlock(gray)
    // right 58% of width, bottom 45% of height
    assert.Equal(t, 580, crop.Bounds().Dx())
    assert.Equal(t, 360, crop.Bounds().Dy())
}

func TestOtsuBinarizeSeparatesBimodal(t *testing.T) {
    gray := image.NewGray(image.Rect(0, 0, 20, 20))
    for i := range gray.Pix {
        if i%2 == 0 {
            gray.Pix[i] = 40 // ink
        } else {
            gray.Pix[i] = 220 // paper
        }
    }
    out := otsuBinarize(gray)
    for i := range out.Pix {
        if i%2 == 0 {
            require.Equal(t, uint8(0), out.Pix[i])
        } else {
            require.Equal(t, uint8(255), out.Pix[i])
        }
    }
}

func TestGaussianBlurPreservesFlatRegions(t *testing.T) {
    gray := image.NewGray(image.Rect(0, 0, 10, 10))
    for i := range gray.Pix {
        gray.Pix[i] = 128
    }
    out := gaussianBlur3(gray)
    for _, v := range out.Pix {
        assert.Equal(t, uint8(128), v)
    }
}
