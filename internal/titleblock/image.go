package titleblock

import (
    "image"
)

const (
    // Title blocks in this document family sit in the bottom-right corner:
    // keep the bottom 45% and right 58% of the page raster.
    cropTopFrac  = 0.55
    cropLeftFrac = 0.42

    // Crops narrower than this are upscaled before OCR.
    minCropWidth = 1200
)

// cropTitleBlock extracts the bottom-right title-block region as a standalone
// image (pixels copied, origin reset to zero).
func cropTitleBlock(gray *image.Gray) *image.Gray {
    b := gray.Bounds()
    w, h := b.Dx(), b.Dy()
    x0 := b.Min.X + int(float64(w)*cropLeftFrac)
    y0 := b.Min.Y + int(float64(h)*cropTopFrac)

    out := image.NewGray(image.Rect(0, 0, b.Max.X-x0, b.Max.Y-y0))
    for y := y0; y < b.Max.Y; y++ {
        for x := x0; x < b.Max.X; x++ {
            out.SetGray(x-x0, y-y0, gray.GrayAt(x, y))
        }
    }
    return out
}

// gaussianBlur3 applies a 3x3 Gaussian kernel to flatten scan noise.
func gaussianBlur3(src *image.Gray) *image.Gray {
    b := src.Bounds()
    w, h := b.Dx(), b.Dy()
    out := image.NewGray(image.Rect(0, 0, w, h))
    if w < 3 || h < 3 {
        copy(out.Pix, src.Pix)
        return out
    }

    at := func(x, y int) int {
        if x < 0 {
            x = 0
        } else if x >= w {
            x = w - 1
        }
        if y < 0 {
            y = 0
        } else if y >= h {
            y = h - 1
        }
        return int(src.Pix[y*src.Stride+x])
    }
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            sum := at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1) +
                2*at(x-1, y) + 4*at(x, y) + 2*at(x+1, y) +
                at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
            out.Pix[y*out.Stride+x] = uint8((sum + 8) / 16)
        }
    }
    return out
}

// otsuBinarize thresholds the image into crisp black/white using Otsu's
// method over the intensity histogram.
func otsuBinarize(src *image.Gray) *image.Gray {
    var hist [256]int
    for _, v := range src.Pix {
        hist[v]++
    }
    total := len(src.Pix)
    if total == 0 {
        return src
    }

    var sum float64
    for i, n := range hist {
        sum += float64(i) * float64(n)
    }

    var sumB, wB float64
    var maxVar float64
    threshold := 0
    for i := 0; i < 256; i++ {
        wB += float64(hist[i])
        if wB == 0 {
            continue
        }
        wF := float64(total) - wB
        if wF == 0 {
            break
        }
        sumB += float64(i) * float64(hist[i])
        mB := sumB / wB
        mF := (sum - sumB) / wF
        between := wB * wF * (mB - mF) * (mB - mF)
        if between > maxVar {
            maxVar = between
            threshold = i
        }
    }

    out := image.NewGray(src.Bounds())
    for i, v := range src.Pix {
        if int(v) > threshold {
            out.Pix[i] = 255
        } else {
            out.Pix[i] = 0
        }
    }
    return out
}
