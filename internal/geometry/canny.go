package geometry

import (
    "image"
    "math"
)

// DetectEdges runs Canny edge detection over a grayscale raster and returns
// a binary edge map (255 = edge pixel). low and high are the hysteresis
// gradient-magnitude thresholds.
func DetectEdges(gray *image.Gray, low, high float64) *image.Gray {
    bounds := gray.Bounds()
    w, h := bounds.Dx(), bounds.Dy()
    edges := image.NewGray(image.Rect(0, 0, w, h))
    if w < 3 || h < 3 {
        return edges
    }

    // Sobel gradients
    mag := make([]float64, w*h)
    dir := make([]uint8, w*h) // quantized direction: 0=E/W 1=NE/SW 2=N/S 3=NW/SE
    at := func(x, y int) float64 {
        return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
    }
    for y := 1; y < h-1; y++ {
        for x := 1; x < w-1; x++ {
            gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
            gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
            idx := y*w + x
            mag[idx] = math.Hypot(gx, gy)
            dir[idx] = quantizeDirection(gx, gy)
        }
    }

    // Non-maximum suppression then double threshold.
    // 0 = suppressed, 1 = weak, 2 = strong
    class := make([]uint8, w*h)
    for y := 1; y < h-1; y++ {
        for x := 1; x < w-1; x++ {
            idx := y*w + x
            m := mag[idx]
            if m < low {
                continue
            }
            var m1, m2 float64
            switch dir[idx] {
            case 0:
                m1, m2 = mag[idx-1], mag[idx+1]
            case 1:
                m1, m2 = mag[idx-w+1], mag[idx+w-1]
            case 2:
                m1, m2 = mag[idx-w], mag[idx+w]
            default:
                m1, m2 = mag[idx-w-1], mag[idx+w+1]
            }
            if m < m1 || m < m2 {
                continue
            }
            if m >= high {
                class[idx] = 2
            } else {
                class[idx] = 1
            }
        }
    }

    // Hysteresis: keep weak pixels 8-connected to a strong one.
    stack := make([]int, 0, 1024)
    for idx, c := range class {
        if c == 2 {
            stack = append(stack, idx)
        }
    }
    for len(stack) > 0 {
        idx := stack[len(stack)-1]
        stack = stack[:len(stack)-1]
        x, y := idx%w, idx/w
        edges.Pix[edges.PixOffset(x, y)] = 255
        for dy := -1; dy <= 1; dy++ {
            for dx := -1; dx <= 1; dx++ {
                nx, ny := x+dx, y+dy
                if nx < 0 || nx >= w || ny < 0 || ny >= h {
                    continue
                }
                n := ny*w + nx
                if class[n] == 1 {
                    class[n] = 2
                    stack = append(stack, n)
                }
            }
        }
    }

    return edges
}

func quantizeDirection(gx, gy float64) uint8 {
    a := math.Atan2(gy, gx) * 180 / math.Pi
    if a < 0 {
        a += 180
    }
    switch {
    case a < 22.5 || a >= 157.5:
        return 0
    case a < 67.5:
        return 1
    case a < 112.5:
        return 2
    default:
        return 3
    }
}
