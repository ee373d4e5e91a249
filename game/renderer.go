package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

var (
	backgroundColor = color.NRGBA{255, 255, 255, 255}
	flashColor      = color.NRGBA{255, 0, 0, 255}
	hudColor        = color.NRGBA{0, 0, 0, 255}
)

// Renderer draws the world state sampled between steps
type Renderer struct {
	face *text.GoXFace
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{
		face: text.NewGoXFace(basicfont.Face7x13),
	}
}

// Render draws a full frame. simTime is the time reached by the last completed
// step and frac the wall time elapsed since, used to extrapolate every pose.
func (r *Renderer) Render(screen *ebiten.Image, w *World, simTime, frac float64) {
	screen.Fill(r.background(w, simTime))

	world := NewCanvas(screen, w.Camera().GeoM())
	b := w.Bounds()
	world.StrokeRect(float32(b.Min.X), float32(b.Min.Y), float32(b.Width()), float32(b.Height()), 1,
		GetGroupConfig(GroupEnvironment).Color)

	for _, e := range w.Entities() {
		pos, angle := e.Base().Pose(frac)
		e.Render(world.At(pos.X, pos.Y, angle), simTime, frac)
	}

	r.drawHUD(screen, w)
}

// background fades from red to white over the flash window after a hit
func (r *Renderer) background(w *World, simTime float64) color.Color {
	flash := w.Config().World.FlashDuration
	since := simTime - w.LastDamageTime()
	if flash <= 0 || since < 0 || since >= flash {
		return backgroundColor
	}
	k := since / flash
	return color.NRGBA{
		R: lerp8(flashColor.R, backgroundColor.R, k),
		G: lerp8(flashColor.G, backgroundColor.G, k),
		B: lerp8(flashColor.B, backgroundColor.B, k),
		A: 255,
	}
}

func (r *Renderer) drawHUD(screen *ebiten.Image, w *World) {
	r.drawText(screen, fmt.Sprintf("SCORE %d", w.Score()), 10, 10)

	if prompt := hudPrompt(w.State(), w.startKeyName()); prompt != "" {
		bounds := screen.Bounds()
		width, _ := text.Measure(prompt, r.face, 0)
		r.drawText(screen, prompt, (float64(bounds.Dx())-width)/2, float64(bounds.Dy())/2)
	}
}

// hudPrompt is the centred line for state. Leaving game over takes one
// release to reach the start screen and another to begin.
func hudPrompt(state State, key string) string {
	switch state {
	case StateWaiting:
		return fmt.Sprintf("PRESS %s TO START", key)
	case StateGameOver:
		return fmt.Sprintf("GAME OVER - PRESS %s TO CONTINUE", key)
	default:
		return ""
	}
}

func (r *Renderer) drawText(screen *ebiten.Image, s string, x, y float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(hudColor)
	text.Draw(screen, s, r.face, op)
}

func lerp8(a, b uint8, k float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*k)
}
