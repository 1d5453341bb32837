package scenes

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"github.com/automoto/netfps/network"
	"github.com/automoto/netfps/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/yohamta/donburi/ecs"

	cfg "github.com/automoto/netfps/config"
)

// Connector dials the server and returns the client and a fresh driver for
// it. The disconnected scene calls it again to reconnect.
type Connector func() (*network.Client, *network.Driver)

// NetworkedScene steps the netcode once per ebiten tick and draws the
// mirrored world top-down.
type NetworkedScene struct {
	sceneChanger SceneChanger
	connect      Connector
	client       *network.Client
	driver       *network.Driver

	ecs     *ecs.ECS
	session *network.Session
}

func NewNetworkedScene(sc SceneChanger, connect Connector) *NetworkedScene {
	client, driver := connect()
	return &NetworkedScene{
		sceneChanger: sc,
		connect:      connect,
		client:       client,
		driver:       driver,
	}
}

func (ns *NetworkedScene) Update() {
	if err := ns.driver.Step(); err != nil {
		if !errors.Is(err, network.ErrDisconnected) {
			log.Printf("[networked] step: %v", err)
			return
		}
		reason := "disconnected"
		if lastErr := ns.client.LastError(); lastErr != nil {
			reason = lastErr.Error()
		}
		log.Printf("[networked] %s, leaving game", reason)
		ns.client.Disconnect()
		ns.sceneChanger.ChangeScene(NewDisconnectedScene(ns.sceneChanger, ns.connect, reason))
		return
	}

	if s := ns.driver.Session(); s != nil && s != ns.session {
		ns.configure(s)
	}
	if ns.ecs != nil {
		ns.ecs.Update()
	}
}

func (ns *NetworkedScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	if ns.ecs == nil {
		msg := fmt.Sprintf("%s to %s ...", ns.client.State(), cfg.Client.ServerAddr)
		ebitenutil.DebugPrintAt(screen, msg, 4, 4)
		return
	}
	ns.ecs.Draw(screen)
}

// configure builds the view over the world the driver created for s.
func (ns *NetworkedScene) configure(s *network.Session) {
	ns.session = s
	ns.ecs = ecs.NewECS(ns.driver.World())

	systems.CreateCamera(ns.ecs)
	ns.ecs.AddSystem(systems.NewCameraSystem(s))
	ns.ecs.AddRenderer(cfg.Default, systems.DrawColliders)
	ns.ecs.AddRenderer(cfg.Default, systems.NewPlayerRenderer(s))
	ns.ecs.AddRenderer(cfg.Overlay, systems.NewNetStatsRenderer(ns.client, s))
}
