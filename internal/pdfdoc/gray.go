package pdfdoc

import (
    "image"
    "image/draw"

    xdraw "golang.org/x/image/draw"
)

// ToGray converts an image to grayscale.
func ToGray(img image.Image) *image.Gray {
    if g, ok := img.(*image.Gray); ok {
        return g
    }
    bounds := img.Bounds()
    gray := image.NewGray(bounds)
    draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
    return gray
}

// ScaleToWidth resizes a grayscale image to the given width, keeping aspect
// ratio. Bilinear is used for downscaling, Catmull-Rom for upscaling where
// smooth interpolation matters (small title-block print fed to OCR).
func ScaleToWidth(src *image.Gray, width int) *image.Gray {
    b := src.Bounds()
    if b.Dx() == width || b.Dx() == 0 {
        return src
    }
    height := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
    if height < 1 {
        height = 1
    }
    dst := image.NewGray(image.Rect(0, 0, width, height))
    if width > b.Dx() {
        xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
    } else {
        xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
    }
    return dst
}
