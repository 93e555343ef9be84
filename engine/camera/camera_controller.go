package camera

// Input is the pointer and modifier state sampled once per frame.
type Input struct {
	CursorX, CursorY float64

	// Left, Right and Middle report whether each mouse button is held.
	Left, Right, Middle bool

	// Modifier reports whether the drag modifier key (left shift) is held.
	Modifier bool
}

// CameraController maps pointer drags onto an orbit Camera. Left drags turn, right drags zoom and
// middle drags pan. A drag only moves the camera while the modifier is held; otherwise the lock
// position follows the cursor so that pressing the modifier never causes a jump.
type CameraController interface {
	// Update applies one frame of input to the camera.
	//
	// Parameters:
	//   - in: the input state for this frame
	//
	// Returns:
	//   - bool: true if the camera moved
	Update(in Input) bool

	// Camera returns the controlled camera.
	//
	// Returns:
	//   - Camera: the camera
	Camera() Camera

	// LockPosition returns the cursor position drags are measured from.
	LockPosition() (x, y float64)

	// PanSpeed returns the pan distance per pixel, relative to the radius.
	PanSpeed() float32

	// ZoomSpeed returns the radius factor applied per frame of zoom drag.
	ZoomSpeed() float32

	// TurnSpeed returns the radians turned per pixel.
	TurnSpeed() float32
}
