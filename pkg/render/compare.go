package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// CompareResult is the outcome of a pixel comparison.
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	// MaxDifference is the largest channel difference found, 0-255.
	MaxDifference int
	// Diff marks differing pixels red over a gray copy of the actual
	// image. Only set when requested.
	Diff *image.RGBA
}

// CompareOptions tune Compare.
type CompareOptions struct {
	// Tolerance is the largest per channel difference (0-255) that still
	// counts as equal.
	Tolerance int
	// FuzzyRadius lets a pixel match any expected pixel within the radius.
	FuzzyRadius int
	// MaxDifferentPercent passes a comparison with at most this share of
	// differing pixels.
	MaxDifferentPercent float64
	WantDiff            bool
}

// DefaultCompareOptions allow small anti-aliasing differences.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{Tolerance: 2}
}

// Compare compares two images pixel by pixel.
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return &CompareResult{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", bounds, expected.Bounds())
	}
	res := &CompareResult{Match: true, TotalPixels: bounds.Dx() * bounds.Dy()}
	if opts.WantDiff {
		res.Diff = image.NewRGBA(bounds)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := channelDiff(actual.At(x, y), expected.At(x, y))
			res.MaxDifference = max(res.MaxDifference, d)
			ok := d <= opts.Tolerance ||
				(opts.FuzzyRadius > 0 && fuzzyMatch(actual, expected, x, y, opts.FuzzyRadius, opts.Tolerance))
			if !ok {
				res.Match = false
				res.DifferentPixels++
			}
			if res.Diff != nil {
				if ok {
					r, _, _, _ := actual.At(x, y).RGBA()
					res.Diff.Set(x, y, color.Gray{Y: uint8(r >> 8)})
				} else {
					res.Diff.Set(x, y, color.RGBA{R: 255, A: 255})
				}
			}
		}
	}
	if !res.Match && opts.MaxDifferentPercent > 0 {
		pct := float64(res.DifferentPixels) / float64(res.TotalPixels) * 100
		res.Match = pct <= opts.MaxDifferentPercent
	}
	return res, nil
}

// CompareFiles compares two PNG files.
func CompareFiles(actualPath, expectedPath string, opts CompareOptions) (*CompareResult, error) {
	actual, err := loadPNG(actualPath)
	if err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	expected, err := loadPNG(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func channelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar>>8, br>>8),
		absDiff(ag>>8, bg>>8),
		absDiff(ab>>8, bb>>8),
		absDiff(aa>>8, ba>>8),
	)
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// fuzzyMatch reports whether the actual pixel at x, y matches an expected
// pixel within radius.
func fuzzyMatch(actual, expected image.Image, x, y, radius, tolerance int) bool {
	bounds := expected.Bounds()
	c := actual.At(x, y)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(bounds) {
				continue
			}
			if channelDiff(c, expected.At(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}
