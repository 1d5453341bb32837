package scenes

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// DisconnectedScene shows why the connection ended and reconnects on Enter.
type DisconnectedScene struct {
	sceneChanger SceneChanger
	connect      Connector
	reason       string
}

func NewDisconnectedScene(sc SceneChanger, connect Connector, reason string) *DisconnectedScene {
	return &DisconnectedScene{sceneChanger: sc, connect: connect, reason: reason}
}

func (ds *DisconnectedScene) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		ds.sceneChanger.ChangeScene(NewNetworkedScene(ds.sceneChanger, ds.connect))
	}
}

func (ds *DisconnectedScene) Draw(screen *ebiten.Image) {
	// Always clear screen to prevent white flashes from OS window background
	screen.Fill(color.Black)
	ebitenutil.DebugPrintAt(screen, ds.reason, 4, 4)
	ebitenutil.DebugPrintAt(screen, "press Enter to reconnect", 4, 20)
}
