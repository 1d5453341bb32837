// Package components holds client-only components that never cross the wire.
package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// CameraData is the top-down view. Focus is the world point at the centre of
// the screen; only its X and Z are used.
type CameraData struct {
	Focus mgl64.Vec3
	Zoom  float64
}

var Camera = donburi.NewComponentType[CameraData]()

// ToScreen projects a world point onto a screen of size w x h. World X runs
// right and world Z runs down.
func (c CameraData) ToScreen(p mgl64.Vec3, w, h int) (float32, float32) {
	x := (p.X()-c.Focus.X())*c.Zoom + float64(w)/2
	y := (p.Z()-c.Focus.Z())*c.Zoom + float64(h)/2
	return float32(x), float32(y)
}
