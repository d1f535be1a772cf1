package engine

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/schematic/internal/viewport"
)

const (
	cameraFPS       = 60
	cameraFrequency = 8.0
	cameraDamping   = 1.0 // critically damped: no overshoot, zoom stays positive

	settleZoom = 1e-4 // relative
	settlePan  = 0.25 // screen px

	maxCameraFrames = 4 * cameraFPS
)

// cameraMove eases the view toward a target, one Tick per frame.
type cameraMove struct {
	spring harmonica.Spring
	target viewport.ViewState

	zoom, panX, panY    float64
	zoomV, panXV, panYV float64

	frames int
}

func newCameraMove(from, to viewport.ViewState) *cameraMove {
	return &cameraMove{
		spring: harmonica.NewSpring(harmonica.FPS(cameraFPS), cameraFrequency, cameraDamping),
		target: to,
		zoom:   from.Zoom,
		panX:   from.Pan.X,
		panY:   from.Pan.Y,
	}
}

// step advances the move by one frame. done is true once the view has
// settled on the target, which is then returned exactly.
func (c *cameraMove) step() (v viewport.ViewState, done bool) {
	c.zoom, c.zoomV = c.spring.Update(c.zoom, c.zoomV, c.target.Zoom)
	c.panX, c.panXV = c.spring.Update(c.panX, c.panXV, c.target.Pan.X)
	c.panY, c.panYV = c.spring.Update(c.panY, c.panYV, c.target.Pan.Y)
	c.frames++

	if c.frames >= maxCameraFrames {
		return c.target, true
	}
	if math.Abs(c.zoom-c.target.Zoom) <= settleZoom*c.target.Zoom &&
		math.Abs(c.panX-c.target.Pan.X) <= settlePan &&
		math.Abs(c.panY-c.target.Pan.Y) <= settlePan {
		return c.target, true
	}

	return viewport.ViewState{
		Zoom:   viewport.ClampZoom(c.zoom),
		Pan:    vec.Vec2{X: c.panX, Y: c.panY},
		PageID: c.target.PageID,
	}, false
}
