package rimage

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

const grayLevels = 256

// intensityLevels holds the values 0..255 as float64, used as the sample axis of the histogram.
var intensityLevels = func() []float64 {
	levels := make([]float64, grayLevels)
	for i := range levels {
		levels[i] = float64(i)
	}
	return levels
}()

// GrayHistogram counts the number of pixels at every intensity.
func GrayHistogram(gray *image.Gray) []float64 {
	hist := make([]float64, grayLevels)
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	return hist
}

// OtsuThreshold picks the global threshold t that minimizes the weighted intra-class variance
// of the two classes [0, t] and (t, 255]. This is done by maximizing the between-class variance,
// which is equivalent. The first maximum wins. An image with a single intensity has no valid split
// and yields 0.
func OtsuThreshold(gray *image.Gray) uint8 {
	hist := GrayHistogram(gray)

	var total float64
	for _, n := range hist {
		total += n
	}
	if total == 0 {
		return 0
	}

	best := 0
	bestSigma := 0.0
	var lowWeight float64
	for t := 0; t < grayLevels-1; t++ {
		lowWeight += hist[t]
		highWeight := total - lowWeight
		if lowWeight == 0 || highWeight == 0 {
			continue
		}
		lowMean := stat.Mean(intensityLevels[:t+1], hist[:t+1])
		highMean := stat.Mean(intensityLevels[t+1:], hist[t+1:])
		diff := lowMean - highMean
		sigma := (lowWeight / total) * (highWeight / total) * diff * diff
		if sigma > bestSigma {
			bestSigma = sigma
			best = t
		}
	}
	return uint8(best)
}

// Threshold returns a mask with every pixel strictly brighter than t set.
func Threshold(gray *image.Gray, t uint8) *Mask {
	bounds := gray.Bounds()
	m := NewMask(bounds.Dx(), bounds.Dy())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.data[m.kxy(x, y)] = gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > t
		}
	}
	return m
}

// OtsuMask thresholds the image at its Otsu level and returns the level with the mask.
func OtsuMask(gray *image.Gray) (*Mask, uint8) {
	t := OtsuThreshold(gray)
	return Threshold(gray, t), t
}
