package camera

import "sync"

const (
	defaultPanSpeed  float32 = 0.001
	defaultZoomSpeed float32 = 0.05
	defaultTurnSpeed float32 = 0.005
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	camera Camera

	lockX, lockY float64

	panSpeed  float32
	zoomSpeed float32
	turnSpeed float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller driving the provided camera.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:        &sync.Mutex{},
		camera:    cam,
		panSpeed:  defaultPanSpeed,
		zoomSpeed: defaultZoomSpeed,
		turnSpeed: defaultTurnSpeed,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Update(in Input) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if !in.Modifier {
		cc.lockX, cc.lockY = in.CursorX, in.CursorY
		return false
	}

	dx := float32(int(in.CursorX - cc.lockX))
	dy := float32(int(in.CursorY - cc.lockY))
	cc.lockX, cc.lockY = in.CursorX, in.CursorY

	switch {
	case in.Right:
		var dir float32
		if dx > 0 {
			dir = -1
		} else if dx < 0 {
			dir = 1
		}
		if dir == 0 {
			return false
		}
		cc.camera.Zoom(dir * cc.zoomSpeed)
	case in.Left:
		if dx == 0 && dy == 0 {
			return false
		}
		cc.camera.Turn(dy*cc.turnSpeed, dx*cc.turnSpeed)
	case in.Middle:
		if dx == 0 && dy == 0 {
			return false
		}
		cc.camera.Pan(dx*cc.panSpeed, dy*cc.panSpeed)
	default:
		return false
	}
	return true
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.camera
}

func (cc *cameraControllerImpl) LockPosition() (x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lockX, cc.lockY
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	return cc.panSpeed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) TurnSpeed() float32 {
	return cc.turnSpeed
}
