package game

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var keyNames = map[string]ebiten.Key{
	"space": ebiten.KeySpace,
	"enter": ebiten.KeyEnter,
	"s":     ebiten.KeyS,
}

// ParseKey maps a configured key name to an ebiten key
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// InputSink receives pointer and key events from a frontend
type InputSink interface {
	OnPointerMove(x, y float64)
	OnKeyRelease(key ebiten.Key)
}

// inputState is written by the frontend and read by the stepping goroutine.
// A read may be one step stale.
type inputState struct {
	pointerX atomic.Uint64
	pointerY atomic.Uint64
	released atomic.Bool
}

func (s *inputState) storePointer(x, y float64) {
	s.pointerX.Store(math.Float64bits(x))
	s.pointerY.Store(math.Float64bits(y))
}

func (s *inputState) loadPointer() (float64, float64) {
	return math.Float64frombits(s.pointerX.Load()), math.Float64frombits(s.pointerY.Load())
}

func (s *inputState) takeRelease() bool {
	return s.released.Swap(false)
}

// OnPointerMove records the pointer position in screen pixels. Safe to call
// from any goroutine.
func (w *World) OnPointerMove(x, y float64) {
	w.input.storePointer(x, y)
}

// OnKeyRelease queues a state change when key is the start key. The request
// is applied at the start of the next step. Safe to call from any goroutine.
func (w *World) OnKeyRelease(key ebiten.Key) {
	if key == w.startKey {
		w.input.released.Store(true)
	}
}

// DesktopInput polls ebiten's cursor and keyboard
type DesktopInput struct {
	keys []ebiten.Key
}

// NewDesktopInput creates a keyboard and mouse poller
func NewDesktopInput() *DesktopInput {
	return &DesktopInput{
		keys: make([]ebiten.Key, 0, 8),
	}
}

// Poll forwards this tick's cursor position and released keys to sink
func (d *DesktopInput) Poll(sink InputSink) {
	x, y := ebiten.CursorPosition()
	sink.OnPointerMove(float64(x), float64(y))

	d.keys = inpututil.AppendJustReleasedKeys(d.keys[:0])
	for _, k := range d.keys {
		sink.OnKeyRelease(k)
	}
}

// JustReleased reports whether key was released during this tick
func (d *DesktopInput) JustReleased(key ebiten.Key) bool {
	for _, k := range d.keys {
		if k == key {
			return true
		}
	}
	return false
}

func (w *World) startKeyName() string {
	return strings.ToUpper(w.cfg.Window.StartKey)
}
