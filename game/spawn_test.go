package game

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/require"
)

func TestHazardTarget(t *testing.T) {
	cfg := SpawnConfig{ScorePerHazard: 400, MaxHazards: 12}

	tests := []struct {
		score int64
		want  int
	}{
		{0, 1},
		{-50, 1},
		{399, 1},
		{400, 2},
		{1999, 5},
		{4400, 12},
		{1 << 40, 12},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, HazardTarget(tt.score, cfg), "score %d", tt.score)
	}
}

func TestPlacement_RespectsClearanceAndBounds(t *testing.T) {
	w := newTestWorld(t, testConfig())
	clearance := w.cfg.Spawn.ClearanceRadius

	for _, at := range []cp.Vector{{}, {X: 150, Y: 90}, {X: -150, Y: 90}, {X: 0, Y: -95}} {
		w.Player().Body().SetPosition(at)
		half := GetHazardKindConfig(HazardSlab).Size / 2
		area := w.Bounds().Inset(half)
		for range 500 {
			p := w.placement(half)
			require.True(t, area.Contains(p), "%v outside %v", p, area)
			require.GreaterOrEqual(t, p.Distance(at), clearance)
		}
	}
}
