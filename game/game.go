package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Sampler grants the render goroutine consistent snapshots of a running
// simulation
type Sampler interface {
	AcquireReadAccess()
	ReleaseReadAccess()
	LastSimTime() float64
	RealTime() float64
	Steps() uint64
}

// Game adapts a stepped World to ebiten's game loop
type Game struct {
	world    *World
	sampler  Sampler
	renderer *Renderer
	input    *DesktopInput
	debug    DebugState
	width    int
	height   int
}

// NewGame creates the windowed frontend for world, sampled through s
func NewGame(cfg Config, world *World, s Sampler) *Game {
	return &Game{
		world:    world,
		sampler:  s,
		renderer: NewRenderer(),
		input:    NewDesktopInput(),
		width:    cfg.Window.Width,
		height:   cfg.Window.Height,
	}
}

// Update forwards input to the world, which picks it up on its next step
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.input.Poll(g.world)
	if g.input.JustReleased(ebiten.KeyF1) {
		g.debug.ShowOverlay = !g.debug.ShowOverlay
	}
	return nil
}

// Draw renders the game from a snapshot taken between two steps
func (g *Game) Draw(screen *ebiten.Image) {
	g.sampler.AcquireReadAccess()
	defer g.sampler.ReleaseReadAccess()

	simTime := g.sampler.LastSimTime()
	frac := g.sampler.RealTime() - simTime
	g.renderer.Render(screen, g.world, simTime, frac)

	if g.debug.ShowOverlay {
		g.renderer.DrawDebug(screen, g.world, DebugStats{
			Steps:   g.sampler.Steps(),
			SimTime: simTime,
			Frac:    frac,
			FPS:     ebiten.ActualFPS(),
		})
	}
}

// Layout returns the game's screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
