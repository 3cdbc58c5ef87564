// Package viewer runs players in a desktop window: the window is the
// viewport and the wheel and keyboard scroll the simulated document.
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ivlev/scrollseq/internal/page"
	"github.com/ivlev/scrollseq/internal/player"
	"github.com/ivlev/scrollseq/internal/system"
)

// Game is an ebiten game hosting a page. Update is the page's refresh tick.
type Game struct {
	Page     *page.Page
	Controls Controls
	ShowHUD  bool

	players    []*player.Player
	uploaded   []canvasState
	canvases   []*ebiten.Image
	background color.RGBA
	width      int
	height     int
}

func NewGame(pg *page.Page, background color.RGBA) *Game {
	return &Game{
		Page:       pg,
		Controls:   DefaultControls(),
		ShowHUD:    true,
		background: background,
	}
}

// Add shows p in its own column.
func (g *Game) Add(p *player.Player) {
	g.players = append(g.players, p)
	g.canvases = append(g.canvases, nil)
	g.uploaded = append(g.uploaded, canvasState{Paints: -1})
}

// Run opens the window and blocks until it closes.
func (g *Game) Run(title string) error {
	vp := g.Page.Viewport()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(int(vp.Width), int(vp.Height))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	err := ebiten.RunGame(g)
	for _, p := range g.players {
		p.Close()
	}
	if err == ebiten.Termination {
		return nil
	}
	return err
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.ShowHUD = !g.ShowHUD
	}

	if m := ebiten.Monitor(); m != nil {
		g.Page.SetDevicePixelRatio(m.DeviceScaleFactor())
	}

	_, wheel := ebiten.Wheel()
	g.Controls.Apply(g.Page, Input{
		Wheel:    wheel,
		Up:       ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:     ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		PageUp:   inpututil.IsKeyJustPressed(ebiten.KeyPageUp),
		PageDown: inpututil.IsKeyJustPressed(ebiten.KeyPageDown) || inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Home:     inpututil.IsKeyJustPressed(ebiten.KeyHome),
		End:      inpututil.IsKeyJustPressed(ebiten.KeyEnd),
	})

	g.Page.Tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.background)

	b := screen.Bounds()
	cols := Columns(b.Dx(), b.Dy(), len(g.players))
	for i, p := range g.players {
		if cur := stateOf(p); cur != g.uploaded[i] {
			g.upload(i, p)
			g.uploaded[i] = cur
		}
		img := g.canvases[i]
		if img == nil {
			continue
		}

		ib := img.Bounds()
		scale, x, y := Fit(ib.Dx(), ib.Dy(), cols[i])
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x, y)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	}

	if g.ShowHUD {
		ebitenutil.DebugPrint(screen, g.hud())
	}
}

// upload copies player i's canvas into its ebiten image. A canvas without
// a surface drops the image.
func (g *Game) upload(i int, p *player.Player) {
	snap := p.Snapshot()
	if snap == nil {
		if c := g.canvases[i]; c != nil {
			c.Deallocate()
			g.canvases[i] = nil
		}
		return
	}

	rgba, ok := snap.(*image.RGBA)
	if !ok || rgba.Stride != rgba.Rect.Dx()*4 {
		rgba = system.GetImage(snap.Bounds())
		draw.Draw(rgba, rgba.Rect, snap, snap.Bounds().Min, draw.Src)
		defer system.PutImage(rgba)
	}

	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if c := g.canvases[i]; c == nil || c.Bounds().Dx() != w || c.Bounds().Dy() != h {
		if c != nil {
			c.Deallocate()
		}
		g.canvases[i] = ebiten.NewImage(w, h)
	}
	g.canvases[i].WritePixels(rgba.Pix)
}

func (g *Game) hud() string {
	vp := g.Page.Viewport()
	var sb strings.Builder
	fmt.Fprintf(&sb, "scroll %.0f / %.0f  dpr %.2f  TPS %.0f\n", vp.ScrollY, g.Page.MaxScroll(), g.Page.DevicePixelRatio(), ebiten.ActualTPS())
	for _, p := range g.players {
		s := p.Stats()
		state := "loading"
		if p.Ready() {
			state = "ready"
		}
		fmt.Fprintf(&sb, "%s: frame %d/%d  %s  loaded %d failed %d paints %d\n",
			p.Sequence().Name, p.State().CurrentFrame, p.Store().Len()-1, state, s.Loaded, s.Failed, s.Paints)
	}
	return sb.String()
}

// Layout makes the window the page viewport; size changes are resizes.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.Page.SetViewport(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}
