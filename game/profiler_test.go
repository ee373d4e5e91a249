package game

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProfiler_CapturesOnceThenCoolsDown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	p, err := NewProfiler(ProfileConfig{
		Enabled:  true,
		Dir:      dir,
		LagSteps: 1,
		Cooldown: time.Hour,
		Duration: 50 * time.Millisecond,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.DirExists(t, dir)

	require.NoError(t, p.CaptureProfile("test"))
	require.True(t, p.IsProfiling())
	require.ErrorIs(t, p.CaptureProfile("again"), ErrProfileBusy)

	p.Wait()
	require.False(t, p.IsProfiling())
	require.ErrorIs(t, p.CaptureProfile("later"), ErrProfileCooldown)

	// the lag hook swallows the cooldown
	p.OnLag(40)

	cpu, err := filepath.Glob(filepath.Join(dir, "*-test.cpu.prof"))
	require.NoError(t, err)
	require.Len(t, cpu, 1)
	traces, err := filepath.Glob(filepath.Join(dir, "*-test.trace"))
	require.NoError(t, err)
	require.Len(t, traces, 1)
}
