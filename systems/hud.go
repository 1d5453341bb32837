package systems

import (
	"fmt"

	cfg "github.com/automoto/netfps/config"
	"github.com/automoto/netfps/network"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/yohamta/donburi/ecs"
)

// NewNetStatsRenderer prints the client's netcode state in the top left.
func NewNetStatsRenderer(client network.Transport, session *network.Session) func(*ecs.ECS, *ebiten.Image) {
	return func(_ *ecs.ECS, screen *ebiten.Image) {
		if !cfg.Debug.ShowNetStats {
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %s", client.State(), session.Arena().Name), 4, 4)
			return
		}
		ebitenutil.DebugPrintAt(screen, NetStats(client, session), 4, 4)
	}
}

// NetStats formats the client's netcode state as a few lines of text.
func NetStats(client network.Transport, session *network.Session) string {
	correction, snaps := session.LastCorrection()
	s := fmt.Sprintf("%s  arena %s  tick %d  mirrors %d\ncorrection %.4f  snaps %d",
		client.State(), session.Arena().Name, session.Clock().Current(), session.Mirrors(), correction, snaps)

	if p := session.Prediction(); p != nil {
		confirmed, _ := p.Confirmed()
		s += fmt.Sprintf("\nconfirmed %d  predicted %d  replay %d", confirmed, p.Tick(), p.Len())
		if p.Desynced() {
			s += "  DESYNC"
		}
	}
	if pose, ok := session.LocalPose(); ok {
		s += fmt.Sprintf("\npos %.2f %.2f %.2f  grounded %v",
			pose.Translation.X(), pose.Translation.Y(), pose.Translation.Z(), pose.Grounded)
	}
	return s
}
