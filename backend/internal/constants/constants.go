package constants

// Graph canvas constants
const (
	// GraphBaseWidth is the logical canvas width at 100% zoom
	GraphBaseWidth = 1600.0
	// GraphBaseHeight is the logical canvas height at 100% zoom
	GraphBaseHeight = 1200.0
	// GraphNodeSize is the rendered width of a memory node
	GraphNodeSize = 150.0
	// GraphMargin keeps nodes off the canvas edge
	GraphMargin = 20.0
	// NodeLabelLength is the number of characters of memory text shown on a node
	NodeLabelLength = 50
)

// Zoom constants
const (
	ZoomMin     = 0.5
	ZoomMax     = 2.0
	ZoomStep    = 0.1
	ZoomDefault = 1.0
)

// DeleteConfirmation is the message returned after a memory is removed
const DeleteConfirmation = "Memory deleted successfully"
