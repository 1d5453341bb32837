package systems

import (
	"github.com/automoto/netfps/components"
	cfg "github.com/automoto/netfps/config"
	"github.com/automoto/netfps/network"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateCamera adds the view camera to the world, focused on the origin.
func CreateCamera(e *ecs.ECS) *donburi.Entry {
	entry := e.World.Entry(e.World.Create(components.Camera))
	components.Camera.SetValue(entry, components.CameraData{Zoom: cfg.View.PixelsPerUnit})
	return entry
}

// NewCameraSystem returns an update system that keeps the camera on the
// predicted local player.
func NewCameraSystem(session *network.Session) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		cameraEntry, ok := components.Camera.First(e.World)
		if !ok {
			return
		}
		pose, ok := session.LocalPose()
		if !ok {
			return
		}
		components.Camera.Get(cameraEntry).Focus = pose.Translation
	}
}

func camera(e *ecs.ECS) (components.CameraData, bool) {
	entry, ok := components.Camera.First(e.World)
	if !ok {
		return components.CameraData{}, false
	}
	return *components.Camera.Get(entry), true
}
