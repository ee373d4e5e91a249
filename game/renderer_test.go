package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHUDPrompt(t *testing.T) {
	require.Equal(t, "PRESS SPACE TO START", hudPrompt(StateWaiting, "SPACE"))
	require.Equal(t, "GAME OVER - PRESS ENTER TO CONTINUE", hudPrompt(StateGameOver, "ENTER"))
	require.Empty(t, hudPrompt(StateRunning, "SPACE"))
}

func TestHUDPrompt_FollowsRestartSequence(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.pressStart()
	w.Player().Kill(w.Time())
	w.step(1)
	require.Contains(t, hudPrompt(w.State(), w.startKeyName()), "TO CONTINUE")

	w.pressStart()
	require.Equal(t, "PRESS SPACE TO START", hudPrompt(w.State(), w.startKeyName()))
}
