package game

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
)

// Camera represents the viewport into the world. The world is y-up, the
// screen y-down.
type Camera struct {
	Center cp.Vector // Camera position in world coordinates
	Width  float64   // Viewport width in pixels
	Height float64   // Viewport height in pixels
	PPU    float64   // Pixels per world unit
}

// NewCamera creates a camera showing unitsAcross world units along the
// smaller screen dimension
func NewCamera(width, height, unitsAcross float64) *Camera {
	return &Camera{
		Width:  width,
		Height: height,
		PPU:    math.Min(width, height) / unitsAcross,
	}
}

// WorldToScreen converts world coordinates to screen coordinates
func (c *Camera) WorldToScreen(w cp.Vector) (float64, float64) {
	sx := (w.X-c.Center.X)*c.PPU + c.Width/2
	sy := -(w.Y-c.Center.Y)*c.PPU + c.Height/2
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates
func (c *Camera) ScreenToWorld(sx, sy float64) cp.Vector {
	return cp.Vector{
		X: (sx-c.Width/2)/c.PPU + c.Center.X,
		Y: -(sy-c.Height/2)/c.PPU + c.Center.Y,
	}
}

// GeoM maps world coordinates onto the screen
func (c *Camera) GeoM() ebiten.GeoM {
	var g ebiten.GeoM
	g.Translate(-c.Center.X, -c.Center.Y)
	g.Scale(c.PPU, -c.PPU)
	g.Translate(c.Width/2, c.Height/2)
	return g
}

// Viewport returns the visible world rectangle
func (c *Camera) Viewport() Bounds {
	half := cp.Vector{X: c.Width / 2 / c.PPU, Y: c.Height / 2 / c.PPU}
	return Bounds{Min: c.Center.Sub(half), Max: c.Center.Add(half)}
}

// Follow nudges the centre toward target. Deviation inside deadZone of the
// viewport is ignored; beyond it the excess is wrapped into the dead-zone
// range and squared, so the correction grows smoothly from zero.
func (c *Camera) Follow(target cp.Vector, deadZone, gain float64) {
	c.Center.X += gain * followCorrection((target.X-c.Center.X)*c.PPU, c.Width*deadZone) / c.PPU
	c.Center.Y += gain * followCorrection((target.Y-c.Center.Y)*c.PPU, c.Height*deadZone) / c.PPU
}

// followCorrection maps a pixel deviation to a pixel correction
func followCorrection(dev, quarter float64) float64 {
	if quarter <= 0 {
		return 0
	}
	excess := math.Abs(dev) - quarter
	if excess <= 0 {
		return 0
	}
	r := math.Mod(excess, quarter) / quarter
	return math.Copysign(r*r*quarter, dev)
}

// PointerTracker low-pass filters the screen-space pointer
type PointerTracker struct {
	X, Y  float64
	Blend float64
}

// Track moves the filtered point blend of the way toward (x, y)
func (p *PointerTracker) Track(x, y float64) {
	p.X += (x - p.X) * p.Blend
	p.Y += (y - p.Y) * p.Blend
}
