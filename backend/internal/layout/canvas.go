package layout

import (
	"math"

	"memory-graph/backend/internal/constants"
)

// Canvas is the logical drawing area. Its size is the base size scaled by Zoom.
type Canvas struct {
	BaseWidth  float64
	BaseHeight float64
	Zoom       float64
}

// NewCanvas returns the default canvas at the given zoom, clamped
func NewCanvas(zoom float64) Canvas {
	return Canvas{
		BaseWidth:  constants.GraphBaseWidth,
		BaseHeight: constants.GraphBaseHeight,
		Zoom:       ClampZoom(zoom),
	}
}

// Size returns the scaled width and height
func (c Canvas) Size() (width, height float64) {
	return c.BaseWidth * c.Zoom, c.BaseHeight * c.Zoom
}

// ZoomIn returns a canvas one step closer
func (c Canvas) ZoomIn() Canvas {
	c.Zoom = ClampZoom(c.Zoom + constants.ZoomStep)
	return c
}

// ZoomOut returns a canvas one step further away
func (c Canvas) ZoomOut() Canvas {
	c.Zoom = ClampZoom(c.Zoom - constants.ZoomStep)
	return c
}

// ClampZoom snaps zoom to the nearest step and clamps it to the allowed range.
// Non-finite or non-positive values fall back to the default zoom.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom <= 0 {
		return constants.ZoomDefault
	}
	steps := math.Round(zoom / constants.ZoomStep)
	zoom = steps * constants.ZoomStep
	// drop float noise such as 1.2000000000000002
	zoom = math.Round(zoom*10) / 10
	return math.Min(constants.ZoomMax, math.Max(constants.ZoomMin, zoom))
}
