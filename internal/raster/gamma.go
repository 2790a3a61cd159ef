package raster

import (
	"image"
	"math"
	"sort"
)

// autoGamma derives a gamma value that pulls the image median toward mid
// gray: gamma = log(0.5*255) / log(median). Degenerate medians disable the
// correction by returning 1.
func autoGamma(img *image.NRGBA) float64 {
	median := medianLuminance(img)
	if median <= 1 || median >= 254 {
		return 1
	}
	return math.Log(0.5*255) / math.Log(float64(median))
}

// adjustGamma applies gamma correction through a 256-entry lookup table.
func adjustGamma(img *image.NRGBA, gamma float64) *image.NRGBA {
	if gamma == 1 {
		return img
	}
	inv := 1 / gamma
	var table [256]uint8
	for i := range table {
		table[i] = uint8(math.Pow(float64(i)/255, inv)*255 + 0.5)
	}

	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = table[out.Pix[i]]
		out.Pix[i+1] = table[out.Pix[i+1]]
		out.Pix[i+2] = table[out.Pix[i+2]]
	}
	return out
}

func medianLuminance(img *image.NRGBA) int {
	bounds := img.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return 0
	}
	values := make([]int, 0, count)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			// Rec. 601 luma weights.
			values = append(values, (299*int(c.R)+587*int(c.G)+114*int(c.B))/1000)
		}
	}
	sort.Ints(values)
	return values[len(values)/2]
}
