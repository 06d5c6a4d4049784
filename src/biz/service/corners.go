package service

type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
	Fullscreen  Corner = "fullscreen"
)

// cornerPlacement is a corner's cell on the 2x2 grid. Column and row are 0
// for the near (left/top) edge and 1 for the far (right/bottom) edge, which
// is also the canvas edge the corner's layout is anchored to on that axis.
type cornerPlacement struct {
	column int
	row    int
}

var corners = []Corner{TopLeft, TopRight, BottomLeft, BottomRight}

var cornerTable = map[Corner]cornerPlacement{
	TopLeft:     {column: 0, row: 0},
	TopRight:    {column: 1, row: 0},
	BottomLeft:  {column: 0, row: 1},
	BottomRight: {column: 1, row: 1},
}

func isLayout(name string) bool {
	if Corner(name) == Fullscreen {
		return true
	}
	_, found := cornerTable[Corner(name)]
	return found
}

func cornerAt(column, row int) Corner {
	switch {
	case column == 0 && row == 0:
		return TopLeft
	case column == 1 && row == 0:
		return TopRight
	case column == 0 && row == 1:
		return BottomLeft
	default:
		return BottomRight
	}
}

func directionOffset(direction string) (columnOffset int, rowOffset int) {
	switch direction {
	case "left":
		return -1, 0
	case "right":
		return 1, 0
	case "up":
		return 0, -1
	case "down":
		return 0, 1
	default:
		return 0, 0
	}
}

func clampGrid(v int) int {
	return max(0, min(1, v))
}

// place positions a box of the given size along one axis of a canvas of the
// given extent, keeping it the margin away from the edge it is anchored to.
func place(anchor int, extent, size, nearMargin, farMargin float64) float64 {
	if anchor == 0 {
		return nearMargin
	}
	return extent - size - farMargin
}

// compensate returns how far a box anchored on this axis must move so its
// anchored edge stays put when its size shrinks by delta.
func compensate(anchor int, delta float64) float64 {
	if anchor == 0 {
		return 0
	}
	return delta
}
