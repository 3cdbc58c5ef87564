package viewer

import (
	"image"
	"math"

	"github.com/ivlev/scrollseq/internal/page"
	"github.com/ivlev/scrollseq/internal/player"
)

// Input is the scroll intent read from the keyboard and wheel in one tick.
type Input struct {
	Wheel    float64 // wheel notches, positive scrolls up
	Up, Down bool    // held arrow keys
	PageUp   bool
	PageDown bool
	Home     bool
	End      bool
}

// Controls converts input into document scrolling.
type Controls struct {
	WheelStep float64 // pixels per wheel notch
	KeyStep   float64 // pixels per tick while an arrow key is held
}

func DefaultControls() Controls {
	return Controls{WheelStep: 60, KeyStep: 12}
}

// Apply scrolls pg for one tick of input. Jumps win over relative motion.
func (c Controls) Apply(pg *page.Page, in Input) {
	vh := pg.Viewport().Height
	switch {
	case in.Home:
		pg.ScrollTo(0)
		return
	case in.End:
		pg.ScrollTo(pg.MaxScroll())
		return
	}

	dy := -in.Wheel * c.WheelStep
	if in.Down {
		dy += c.KeyStep
	}
	if in.Up {
		dy -= c.KeyStep
	}
	if in.PageDown {
		dy += vh
	}
	if in.PageUp {
		dy -= vh
	}
	if dy != 0 {
		pg.ScrollBy(dy)
	}
}

// Columns splits the screen into n equal columns.
func Columns(width, height, n int) []image.Rectangle {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	cols := make([]image.Rectangle, n)
	for i := range cols {
		x0 := width * i / n
		x1 := width * (i + 1) / n
		cols[i] = image.Rect(x0, 0, x1, height)
	}
	return cols
}

// Fit scales a w x h image to fit inside cell, centred. It returns the scale
// and the top-left corner.
func Fit(w, h int, cell image.Rectangle) (scale, x, y float64) {
	if w <= 0 || h <= 0 || cell.Empty() {
		return 0, 0, 0
	}
	cw, ch := float64(cell.Dx()), float64(cell.Dy())
	scale = math.Min(cw/float64(w), ch/float64(h))
	x = float64(cell.Min.X) + (cw-float64(w)*scale)/2
	y = float64(cell.Min.Y) + (ch-float64(h)*scale)/2
	return scale, x, y
}

// canvasState identifies the canvas content a window copy was taken from.
// A resize clears the surface without painting, so the size is part of it.
type canvasState struct {
	Paints        int
	Width, Height int
}

func stateOf(p *player.Player) canvasState {
	w, h := p.BackingSize()
	return canvasState{Paints: p.Stats().Paints, Width: w, Height: h}
}
