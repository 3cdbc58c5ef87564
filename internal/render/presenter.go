package render

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/ivlev/scrollseq/internal/config"
)

// Placement is the rectangle an image is drawn into, in layout pixels.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// Letterbox centres an image of the given aspect ratio inside a canvas
// without distortion. A canvas wider than the image is fitted to its height,
// otherwise to its width.
func Letterbox(canvasWidth, canvasHeight, imageAspect float64) Placement {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return Placement{}
	}
	if !(imageAspect > 0) || math.IsInf(imageAspect, 0) {
		return Placement{Width: canvasWidth, Height: canvasHeight}
	}

	if canvasWidth/canvasHeight > imageAspect {
		w := canvasHeight * imageAspect
		return Placement{X: (canvasWidth - w) / 2, Width: w, Height: canvasHeight}
	}
	h := canvasWidth / imageAspect
	return Placement{Y: (canvasHeight - h) / 2, Width: canvasWidth, Height: h}
}

// Presenter owns the backing surface of one canvas. Its coordinate system is
// in layout pixels; the device pixel ratio is applied as a uniform scale.
type Presenter struct {
	fit    config.FitMode
	dc     *gg.Context
	width  float64
	height float64
	ratio  float64
}

// NewPresenter returns a presenter with an empty surface.
func NewPresenter(fit config.FitMode) *Presenter {
	return &Presenter{fit: fit, ratio: 1}
}

// Resize lays the canvas out at layoutWidth. Fill-square canvases are as tall
// as they are wide; letterbox canvases take their height from aspect.
// The backing surface is layout size times ratio.
func (p *Presenter) Resize(layoutWidth, ratio, aspect float64) {
	if !(layoutWidth > 0) || math.IsInf(layoutWidth, 0) {
		layoutWidth = 0
	}
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		ratio = 1
	}

	height := layoutWidth
	if p.fit == config.FitLetterbox && aspect > 0 && !math.IsInf(aspect, 0) {
		height = layoutWidth / aspect
	}

	p.width, p.height, p.ratio = layoutWidth, height, ratio

	bw, bh := int(layoutWidth*ratio), int(height*ratio)
	if bw < 1 || bh < 1 {
		p.dc = nil
		return
	}

	if p.dc == nil {
		p.dc = gg.NewContext(bw, bh)
	} else if err := p.dc.Resize(bw, bh); err != nil {
		p.dc = nil
		return
	}

	// Resizing a canvas resets its content and transform.
	p.dc.Clear()
	p.dc.Identity()
	p.dc.Scale(ratio, ratio)
}

// LayoutSize is the canvas size in layout pixels.
func (p *Presenter) LayoutSize() (width, height float64) { return p.width, p.height }

// BackingSize is the surface size in device pixels; 0x0 when there is no surface.
func (p *Presenter) BackingSize() (width, height int) {
	if p.dc == nil {
		return 0, 0
	}
	return p.dc.Width(), p.dc.Height()
}

// Ratio is the device pixel ratio applied by the last Resize.
func (p *Presenter) Ratio() float64 { return p.ratio }

// Placement is where an image of the given natural size would be drawn now.
// Letterbox placement uses the image's own aspect ratio, or fallbackAspect
// when the size is unknown.
func (p *Presenter) Placement(imageWidth, imageHeight int, fallbackAspect float64) Placement {
	if p.fit != config.FitLetterbox {
		return Placement{Width: p.width, Height: p.height}
	}
	aspect := fallbackAspect
	if imageWidth > 0 && imageHeight > 0 {
		aspect = float64(imageWidth) / float64(imageHeight)
	}
	return Letterbox(p.width, p.height, aspect)
}

// Draw clears the surface and draws img. It reports false when there is no
// surface to draw on.
func (p *Presenter) Draw(img *gg.ImageBuf, imageWidth, imageHeight int, fallbackAspect float64) bool {
	if p.dc == nil || img == nil {
		return false
	}

	pl := p.Placement(imageWidth, imageHeight, fallbackAspect)
	p.dc.Clear()
	if pl.Width <= 0 || pl.Height <= 0 {
		return true
	}
	p.dc.DrawImageEx(img, gg.DrawImageOptions{
		X:             pl.X,
		Y:             pl.Y,
		DstWidth:      pl.Width,
		DstHeight:     pl.Height,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	return true
}

// Snapshot copies the backing surface. It returns nil when there is no surface.
func (p *Presenter) Snapshot() image.Image {
	if p.dc == nil {
		return nil
	}
	return p.dc.Image()
}
