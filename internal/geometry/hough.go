package geometry

import (
    "image"
    "math"
    "math/rand"
)

// Segment is a detected line segment as an endpoint pair, in raster pixels.
type Segment struct {
    X1, Y1, X2, Y2 int
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
    return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// Angle returns the segment orientation folded into [0,90] degrees:
// the absolute angle mod 180, reflected into the first quadrant so that
// 170 degrees reads as 10 and 95 as 85.
func (s Segment) Angle() float64 {
    a := math.Abs(math.Atan2(float64(s.Y2-s.Y1), float64(s.X2-s.X1)) * 180 / math.Pi)
    a = math.Mod(a, 180)
    if a > 90 {
        a = 180 - a
    }
    return a
}

// HoughParams are the fixed parameters of the probabilistic line-segment
// detector: accumulator vote threshold, minimum accepted segment length and
// maximum pixel gap bridged inside one segment.
type HoughParams struct {
    Threshold     int
    MinLineLength int
    MaxLineGap    int
    Seed          int64
}

const angleBins = 180 // 1 degree resolution

// DetectSegments runs a probabilistic Hough transform over a binary edge map
// (non-zero = edge) and returns detected segments. The point-sampling order is
// driven by the seeded source, so output is deterministic for fixed inputs.
func DetectSegments(edges *image.Gray, p HoughParams) []Segment {
    bounds := edges.Bounds()
    w, h := bounds.Dx(), bounds.Dy()

    // Collect edge points.
    points := make([]image.Point, 0, 1024)
    mask := make([]bool, w*h)
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            if edges.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y != 0 {
                points = append(points, image.Point{X: x, Y: y})
                mask[y*w+x] = true
            }
        }
    }
    if len(points) == 0 {
        return nil
    }

    maxRho := int(math.Hypot(float64(w), float64(h))) + 1
    numRho := 2*maxRho + 1
    acc := make([]int32, angleBins*numRho)

    sinTab := make([]float64, angleBins)
    cosTab := make([]float64, angleBins)
    for t := 0; t < angleBins; t++ {
        rad := float64(t) * math.Pi / 180
        sinTab[t] = math.Sin(rad)
        cosTab[t] = math.Cos(rad)
    }

    rnd := rand.New(rand.NewSource(p.Seed))
    var segments []Segment

    for len(points) > 0 {
        // Pick a random remaining point; skip it if a previous segment
        // already consumed the pixel.
        i := rnd.Intn(len(points))
        pt := points[i]
        points[i] = points[len(points)-1]
        points = points[:len(points)-1]
        if !mask[pt.Y*w+pt.X] {
            continue
        }

        // Vote and track the best angle for this point.
        bestT, bestVotes := 0, int32(0)
        for t := 0; t < angleBins; t++ {
            rho := int(math.Round(float64(pt.X)*cosTab[t]+float64(pt.Y)*sinTab[t])) + maxRho
            idx := t*numRho + rho
            acc[idx]++
            if acc[idx] > bestVotes {
                bestVotes = acc[idx]
                bestT = t
            }
        }
        if bestVotes < int32(p.Threshold) {
            continue
        }

        // Walk from the seed point in both directions along the line,
        // bridging gaps up to MaxLineGap.
        dx, dy := -sinTab[bestT], cosTab[bestT]
        if math.Abs(dx) >= math.Abs(dy) {
            dy /= math.Abs(dx)
            dx = math.Copysign(1, dx)
        } else {
            dx /= math.Abs(dy)
            dy = math.Copysign(1, dy)
        }
        end0 := walkLine(mask, w, h, pt, dx, dy, p.MaxLineGap)
        end1 := walkLine(mask, w, h, pt, -dx, -dy, p.MaxLineGap)

        seg := Segment{X1: end0.X, Y1: end0.Y, X2: end1.X, Y2: end1.Y}
        good := seg.Length() >= float64(p.MinLineLength)

        // Consume the pixels of the candidate either way: un-vote them and
        // clear the mask so one ridge is not detected twice.
        clearLine(mask, acc, cosTab, sinTab, numRho, maxRho, w, h, end0, end1)

        if good {
            segments = append(segments, seg)
        }
    }
    return segments
}

// walkLine steps pixel by pixel from start along (dx,dy), returning the last
// edge pixel reached before the accumulated gap exceeds maxGap.
func walkLine(mask []bool, w, h int, start image.Point, dx, dy float64, maxGap int) image.Point {
    last := start
    fx, fy := float64(start.X), float64(start.Y)
    gap := 0
    for {
        fx += dx
        fy += dy
        x, y := int(math.Round(fx)), int(math.Round(fy))
        if x < 0 || x >= w || y < 0 || y >= h {
            break
        }
        if mask[y*w+x] {
            last = image.Point{X: x, Y: y}
            gap = 0
        } else {
            gap++
            if gap > maxGap {
                break
            }
        }
    }
    return last
}

// clearLine removes the pixels between the two endpoints from the edge mask
// and subtracts their accumulator votes.
func clearLine(mask []bool, acc []int32, cosTab, sinTab []float64, numRho, maxRho, w, h int, a, b image.Point) {
    steps := int(math.Max(math.Abs(float64(b.X-a.X)), math.Abs(float64(b.Y-a.Y)))) + 1
    fx, fy := float64(a.X), float64(a.Y)
    sx := float64(b.X-a.X) / float64(steps)
    sy := float64(b.Y-a.Y) / float64(steps)
    for i := 0; i <= steps; i++ {
        x, y := int(math.Round(fx)), int(math.Round(fy))
        fx += sx
        fy += sy
        if x < 0 || x >= w || y < 0 || y >= h || !mask[y*w+x] {
            continue
        }
        mask[y*w+x] = false
        for t := 0; t < angleBins; t++ {
            rho := int(math.Round(float64(x)*cosTab[t]+float64(y)*sinTab[t])) + maxRho
            idx := t*numRho + rho
            if acc[idx] > 0 {
                acc[idx]--
            }
        }
    }
}
