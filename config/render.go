package config

import (
	"image/color"

	"github.com/yohamta/donburi/ecs"
)

// Render layers, drawn in order.
const (
	Default ecs.LayerID = iota
	Overlay
)

// ViewConfig tunes the top-down debug view.
type ViewConfig struct {
	// PixelsPerUnit is the zoom of the top-down view.
	PixelsPerUnit float64
	// PlayerRadius is the placeholder size, in world units.
	PlayerRadius float64
}

var View = ViewConfig{
	PixelsPerUnit: 12,
	PlayerRadius:  0.5,
}

// Shared RGBA color constants
var (
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow      = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	BrightGreen = color.RGBA{R: 0, G: 255, B: 60, A: 255}
	LightGreen  = color.RGBA{R: 100, G: 255, B: 100, A: 255}
	Grey        = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	Cyan        = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	LightBlue   = color.RGBA{R: 100, G: 180, B: 255, A: 255}
)

// PlayerColors cycles through remote player colors by network id.
var PlayerColors = []color.RGBA{
	{R: 255, G: 140, B: 0, A: 255},
	{R: 0, G: 100, B: 255, A: 255},
	{R: 255, G: 0, B: 255, A: 255},
	{R: 128, G: 0, B: 255, A: 255},
	{R: 255, G: 60, B: 60, A: 255},
}
