package game

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

// whiteSource returns the 1x1 white source image triangles are drawn from
func whiteSource() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// Canvas draws primitives in a local coordinate frame on top of a screen
type Canvas struct {
	dst *ebiten.Image
	geo ebiten.GeoM

	vertices []ebiten.Vertex
	indices  []uint16
}

// NewCanvas creates a canvas whose local frame maps onto dst through geo
func NewCanvas(dst *ebiten.Image, geo ebiten.GeoM) *Canvas {
	return &Canvas{dst: dst, geo: geo}
}

// At returns a canvas whose origin sits at (x, y) rotated by angle in this frame
func (c *Canvas) At(x, y, angle float64) *Canvas {
	var g ebiten.GeoM
	g.Rotate(angle)
	g.Translate(x, y)
	g.Concat(c.geo)
	return &Canvas{dst: c.dst, geo: g}
}

// Rotated returns a canvas rotated by angle about the local origin
func (c *Canvas) Rotated(angle float64) *Canvas {
	return c.At(0, 0, angle)
}

// GeoM returns the local-to-screen transform
func (c *Canvas) GeoM() ebiten.GeoM {
	return c.geo
}

func (c *Canvas) FillRect(x, y, w, h float32, clr color.Color) {
	var p vector.Path
	rectPath(&p, x, y, w, h)
	c.fill(&p, clr)
}

func (c *Canvas) StrokeRect(x, y, w, h, width float32, clr color.Color) {
	var p vector.Path
	rectPath(&p, x, y, w, h)
	c.stroke(&p, width, clr)
}

func (c *Canvas) FillCircle(cx, cy, r float32, clr color.Color) {
	var p vector.Path
	p.Arc(cx, cy, r, 0, 2*math.Pi, vector.Clockwise)
	p.Close()
	c.fill(&p, clr)
}

// FillPie fills the sector of the circle at (cx, cy) from angle a0 to a1
func (c *Canvas) FillPie(cx, cy, r, a0, a1 float32, clr color.Color) {
	if a1 <= a0 {
		return
	}
	var p vector.Path
	p.MoveTo(cx, cy)
	p.Arc(cx, cy, r, a0, a1, vector.Clockwise)
	p.Close()
	c.fill(&p, clr)
}

func rectPath(p *vector.Path, x, y, w, h float32) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

func (c *Canvas) fill(p *vector.Path, clr color.Color) {
	c.vertices, c.indices = p.AppendVerticesAndIndicesForFilling(c.vertices[:0], c.indices[:0])
	c.draw(clr, ebiten.FillRuleNonZero)
}

func (c *Canvas) stroke(p *vector.Path, width float32, clr color.Color) {
	op := &vector.StrokeOptions{Width: width, LineJoin: vector.LineJoinMiter, MiterLimit: 4}
	c.vertices, c.indices = p.AppendVerticesAndIndicesForStroke(c.vertices[:0], c.indices[:0], op)
	c.draw(clr, ebiten.FillRuleFillAll)
}

// draw maps the local vertices to the screen and paints them in clr
func (c *Canvas) draw(clr color.Color, rule ebiten.FillRule) {
	if len(c.indices) == 0 {
		return
	}
	n := color.NRGBAModel.Convert(clr).(color.NRGBA)
	r, g, b, a := float32(n.R)/0xff, float32(n.G)/0xff, float32(n.B)/0xff, float32(n.A)/0xff
	for i := range c.vertices {
		v := &c.vertices[i]
		x, y := c.geo.Apply(float64(v.DstX), float64(v.DstY))
		v.DstX, v.DstY = float32(x), float32(y)
		v.SrcX, v.SrcY = 1, 1
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = r, g, b, a
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	op.FillRule = rule
	op.ColorScaleMode = ebiten.ColorScaleModeStraightAlpha
	c.dst.DrawTriangles(c.vertices, c.indices, whiteSource(), op)
}
