package matrix

// BorderPixels is the outer ring, clockwise from the top-left corner.
var BorderPixels = []int{
	0, 1, 2, 3, 4, 5, 6, 7,
	15, 23, 31, 39, 47, 55, 63,
	62, 61, 60, 59, 58, 57, 56,
	48, 40, 32, 24, 16, 8,
}

// SnakePixels winds through the inner 6x6 block row by row, alternating
// direction, and ends just inside the bottom-left corner.
var SnakePixels = []int{
	9, 10, 11, 12, 13, 14,
	22, 21, 20, 19, 18, 17,
	25, 26, 27, 28, 29, 30,
	38, 37, 36, 35, 34, 33,
	41, 42, 43, 44, 45, 46,
	54, 53, 52, 51, 50, 49,
}

// Status pixel positions.
const (
	// PixelStatus shows the state colour.
	PixelStatus = 0
	// PixelProblem is lit while Recover is being extended by detections.
	PixelProblem = 8
)
