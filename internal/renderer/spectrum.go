// Package renderer draws analysis results as images.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/pcmbridge/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

var background = color.RGBA{R: 12, G: 12, B: 16, A: 255}

// Spectrum renders an averaged magnitude spectrum as a bar chart
type Spectrum struct {
	img      *image.RGBA
	face     font.Face
	plot     image.Rectangle
	barWidth int

	// Pre-computed values
	alphaTable    []uint8    // Alpha gradient from the baseline up
	barColorTable [][3]uint8 // Bar colors at different alpha levels
}

// NewSpectrum creates a renderer with the embedded caption font
func NewSpectrum() (*Spectrum, error) {
	parsedFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size: config.CaptionSize,
		DPI:  72,
	})

	captionHeight := face.Metrics().Height.Ceil()
	plot := image.Rect(
		config.SpectrumMargin,
		config.SpectrumMargin+captionHeight+config.SpectrumMargin/2,
		config.SpectrumWidth-config.SpectrumMargin,
		config.SpectrumHeight-config.SpectrumMargin,
	)
	barWidth := (plot.Dx() - (config.NumBars-1)*config.BarGap) / config.NumBars

	maxBarHeight := plot.Dy()

	// Alpha runs from 1.0 at the baseline to 0.5 at the top
	alphaTable := make([]uint8, maxBarHeight)
	for i := 0; i < maxBarHeight; i++ {
		distance := float64(i) / float64(maxBarHeight)
		alphaTable[i] = uint8((1.0 - distance*0.5) * 255)
	}

	barColorTable := make([][3]uint8, 256)
	for alpha := 0; alpha < 256; alpha++ {
		factor := float64(alpha) / 255.0
		barColorTable[alpha][0] = uint8(float64(config.BarColorR) * factor)
		barColorTable[alpha][1] = uint8(float64(config.BarColorG) * factor)
		barColorTable[alpha][2] = uint8(float64(config.BarColorB) * factor)
	}

	return &Spectrum{
		img:           image.NewRGBA(image.Rect(0, 0, config.SpectrumWidth, config.SpectrumHeight)),
		face:          face,
		plot:          plot,
		barWidth:      barWidth,
		alphaTable:    alphaTable,
		barColorTable: barColorTable,
	}, nil
}

// Close releases the font face
func (s *Spectrum) Close() error {
	return s.face.Close()
}

// Image returns the rendered image
func (s *Spectrum) Image() *image.RGBA {
	return s.img
}

// Draw renders magnitudes, the linear bins of a spectrum up to the Nyquist
// frequency of sampleRate, with caption above the plot
func (s *Spectrum) Draw(magnitudes []float64, sampleRate int, caption string) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	heights := BarHeights(magnitudes, sampleRate, config.NumBars, s.plot.Dy())
	for i, h := range heights {
		x := s.plot.Min.X + i*(s.barWidth+config.BarGap)
		s.drawBar(x, h)
	}

	if caption != "" {
		s.drawCaption(caption)
	}
}

func (s *Spectrum) drawBar(x, height int) {
	stride := s.img.Stride
	for i := 0; i < height; i++ {
		y := s.plot.Max.Y - 1 - i
		c := s.barColorTable[s.alphaTable[i]]
		off := y*stride + x*4
		for px := 0; px < s.barWidth; px++ {
			s.img.Pix[off+0] = c[0]
			s.img.Pix[off+1] = c[1]
			s.img.Pix[off+2] = c[2]
			s.img.Pix[off+3] = 255
			off += 4
		}
	}
}

func (s *Spectrum) drawCaption(text string) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255}),
		Face: s.face,
	}
	ascent := s.face.Metrics().Ascent.Ceil()
	d.Dot = freetype.Pt(config.SpectrumMargin, config.SpectrumMargin+ascent)
	d.DrawString(text)
}

// BarHeights groups linear spectrum bins into numBars logarithmic bands
// between 20 Hz and Nyquist and scales each band to maxHeight pixels on a
// dB scale relative to the loudest band
func BarHeights(magnitudes []float64, sampleRate, numBars, maxHeight int) []int {
	heights := make([]int, numBars)
	if len(magnitudes) < 2 || sampleRate <= 0 || numBars <= 0 {
		return heights
	}

	nyquist := float64(sampleRate) / 2
	binHz := nyquist / float64(len(magnitudes))
	lo := math.Min(20, nyquist/2)
	ratio := math.Pow(nyquist/lo, 1/float64(numBars))

	bands := make([]float64, numBars)
	var peak float64
	for i := range bands {
		f0 := lo * math.Pow(ratio, float64(i))
		f1 := f0 * ratio
		start := max(1, int(f0/binHz))
		end := min(len(magnitudes), max(start+1, int(math.Ceil(f1/binHz))))

		var sum float64
		for _, m := range magnitudes[start:end] {
			sum += m
		}
		bands[i] = sum / float64(end-start)
		peak = math.Max(peak, bands[i])
	}
	if peak <= 0 {
		return heights
	}

	for i, b := range bands {
		if b <= 0 {
			continue
		}
		db := 20 * math.Log10(b/peak)
		level := 1 + db/config.SpectrumFloorDB
		if level <= 0 {
			continue
		}
		heights[i] = int(math.Round(level * float64(maxHeight)))
	}
	return heights
}

// SavePNG writes the rendered image to path
func (s *Spectrum) SavePNG(path string) error {
	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(outFile, s.img); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}
