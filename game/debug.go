package game

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// DebugState holds debug flags that persist across rounds
type DebugState struct {
	ShowOverlay bool // Scheduler and world counters in the corner
}

// DebugStats is what the overlay prints
type DebugStats struct {
	Steps   uint64
	SimTime float64
	Frac    float64
	FPS     float64
}

// DrawDebug prints the overlay below the score line
func (r *Renderer) DrawDebug(screen *ebiten.Image, w *World, s DebugStats) {
	lines := []string{
		fmt.Sprintf("fps %.0f  steps %d", s.FPS, s.Steps),
		fmt.Sprintf("sim %.3fs  lag %.4fs", s.SimTime, s.Frac),
		fmt.Sprintf("entities %d  hazards %d/%d", len(w.Entities()), w.LiveHazards(), HazardTarget(w.Score(), w.Config().Spawn)),
		fmt.Sprintf("state %s  round %s", w.State(), w.Round()),
	}
	for i, line := range lines {
		r.drawText(screen, line, 10, 30+float64(i)*16)
	}
}
