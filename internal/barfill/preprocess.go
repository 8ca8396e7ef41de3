package barfill

import (
	"image"
	"image/color"
	"math"
)

func pixelGray(v uint8) color.Gray { return color.Gray{Y: v} }

const (
	white = 255
	black = 0

	// Adaptive threshold parameters: Gaussian-weighted local mean over an
	// 11x11 block, offset by a constant of 2.
	adaptiveBlockSize = 11
	adaptiveC         = 2

	closingKernelSize = 3
)

// Preprocessed holds the binary derivations of one chart image, computed once
// and shared by all bar-region classifications on that image.
type Preprocessed struct {
	Bounds image.Rectangle
	// Adaptive is the adaptive Gaussian threshold binarization.
	Adaptive *image.Gray
	// Closing is the global Otsu binarization after a 3x3 morphological
	// closing, which fills the gaps of hatched fills.
	Closing *image.Gray
	// OtsuInv is the global Otsu binarization with inverted polarity.
	OtsuInv *image.Gray
}

// Preprocess converts the image to grayscale and derives the three binary
// images the classification methods vote on.
func Preprocess(img image.Image) *Preprocessed {
	gray := grayscale(img)
	thresh := otsuThreshold(gray)

	otsu := binarize(gray, thresh, false)
	return &Preprocessed{
		Bounds:   gray.Bounds(),
		Adaptive: adaptiveGaussianThreshold(gray, adaptiveBlockSize, adaptiveC),
		Closing:  closing(otsu, closingKernelSize),
		OtsuInv:  binarize(gray, thresh, true),
	}
}

// grayscale converts to 8-bit luminance.
func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma weights on 16-bit channel values.
			lum := (299*r + 587*g + 114*b) / 1000
			gray.SetGray(x, y, pixelGray(uint8(lum >> 8)))
		}
	}
	return gray
}

// otsuThreshold picks the global threshold maximizing between-class variance
// over the 256-bin intensity histogram.
func otsuThreshold(gray *image.Gray) uint8 {
	const bins = 256
	var histogram [bins]int
	total := 0
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			histogram[gray.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var totalSum float64
	for i := range bins {
		totalSum += float64(i) * float64(histogram[i])
	}

	var (
		maxVariance   float64
		bestThreshold int
		sumB          float64
		wB            int
	)
	for t := range bins {
		wB += histogram[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(histogram[t])
		meanB := sumB / float64(wB)
		meanF := (totalSum - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			bestThreshold = t
		}
	}
	return uint8(bestThreshold)
}

// binarize maps pixels above the threshold to white and the rest to black,
// or the opposite when inverted.
func binarize(gray *image.Gray, threshold uint8, inverted bool) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			above := gray.GrayAt(x, y).Y > threshold
			if above != inverted {
				out.SetGray(x, y, pixelGray(white))
			} else {
				out.SetGray(x, y, pixelGray(black))
			}
		}
	}
	return out
}

// adaptiveGaussianThreshold binarizes against a per-pixel threshold: the
// Gaussian-weighted mean of the blockSize neighborhood minus c. Edges are
// handled by clamping (replicated border). The Gaussian sigma follows the
// usual convention for a given kernel size.
func adaptiveGaussianThreshold(gray *image.Gray, blockSize, c int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	kernel := gaussianKernel1D(blockSize)
	half := blockSize / 2

	// Separable convolution: horizontal pass into a float buffer, then
	// vertical pass producing the local weighted mean.
	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * float64(grayAtClamped(gray, x+k, y))
			}
			horiz[y*w+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k := -half; k <= half; k++ {
				yy := clamp(y+k, 0, h-1)
				mean += kernel[k+half] * horiz[yy*w+x]
			}
			src := gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			if float64(src) > mean-float64(c) {
				out.SetGray(b.Min.X+x, b.Min.Y+y, pixelGray(white))
			} else {
				out.SetGray(b.Min.X+x, b.Min.Y+y, pixelGray(black))
			}
		}
	}
	return out
}

// gaussianKernel1D builds a normalized 1-D Gaussian kernel of the given size.
func gaussianKernel1D(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// closing performs a binary morphological closing (dilate then erode), which
// fills gaps smaller than the kernel.
func closing(bin *image.Gray, kernelSize int) *image.Gray {
	return erode(dilate(bin, kernelSize), kernelSize)
}

func dilate(bin *image.Gray, kernelSize int) *image.Gray {
	return morph(bin, kernelSize, func(cur, neighbor uint8) bool { return neighbor > cur })
}

func erode(bin *image.Gray, kernelSize int) *image.Gray {
	return morph(bin, kernelSize, func(cur, neighbor uint8) bool { return neighbor < cur })
}

// morph applies a min/max filter over a square kernel, selecting neighbors
// for which replace returns true. Out-of-bounds neighbors are ignored.
func morph(bin *image.Gray, kernelSize int, replace func(cur, neighbor uint8) bool) *image.Gray {
	b := bin.Bounds()
	out := image.NewGray(b)
	half := kernelSize / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			val := bin.GrayAt(x, y).Y
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					if n := bin.GrayAt(nx, ny).Y; replace(val, n) {
						val = n
					}
				}
			}
			out.SetGray(x, y, pixelGray(val))
		}
	}
	return out
}

func grayAtClamped(g *image.Gray, x, y int) uint8 {
	b := g.Bounds()
	x = clamp(x, 0, b.Dx()-1)
	y = clamp(y, 0, b.Dy()-1)
	return g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
