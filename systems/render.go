package systems

import (
	"fmt"

	"github.com/automoto/netfps/network"
	"github.com/automoto/netfps/shared/collider"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"

	cfg "github.com/automoto/netfps/config"
)

// DrawColliders outlines the horizontal footprint of every level collider.
func DrawColliders(e *ecs.ECS, screen *ebiten.Image) {
	if !cfg.Debug.ShowColliders {
		return
	}
	cam, ok := camera(e)
	if !ok {
		return
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()

	collider.Collider.Each(e.World, func(entry *donburi.Entry) {
		c, ok := collider.Of(entry)
		if !ok {
			return
		}
		x0, y0 := cam.ToScreen(c.Bounds.Min, w, h)
		x1, y1 := cam.ToScreen(c.Bounds.Max, w, h)
		if x1 < 0 || y1 < 0 || x0 > float32(w) || y0 > float32(h) {
			return
		}

		col := cfg.Grey
		if c.Kind != netconfig.BodyStatic {
			col = cfg.Cyan
		}
		bw, bh := x1-x0, y1-y0
		vector.FillRect(screen, x0, y0, bw, 1, col, false)   // Top
		vector.FillRect(screen, x0, y1-1, bw, 1, col, false) // Bottom
		vector.FillRect(screen, x0, y0, 1, bh, col, false)   // Left
		vector.FillRect(screen, x1-1, y0, 1, bh, col, false) // Right
	})
}

// NewPlayerRenderer draws a square per replicated player with a facing line.
// The local player is drawn from prediction, everyone else from
// interpolation.
func NewPlayerRenderer(session *network.Session) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		cam, ok := camera(e)
		if !ok {
			return
		}
		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		size := float32(cfg.View.PlayerRadius * cam.Zoom * 2)

		for _, p := range session.Poses() {
			col := cfg.PlayerColors[int(p.ID)%len(cfg.PlayerColors)]
			if p.Local {
				col = cfg.BrightGreen
			}
			x, y := cam.ToScreen(p.Transform.Translation, w, h)
			vector.FillRect(screen, x-size/2, y-size/2, size, size, col, false)

			facing := p.Transform.Rotation.Rotate(mgl64.Vec3{1, 0, 0}).Mul(cfg.View.PlayerRadius * 2)
			fx, fy := cam.ToScreen(p.Transform.Translation.Add(facing), w, h)
			vector.StrokeLine(screen, x, y, fx, fy, 2, cfg.White, false)

			label := fmt.Sprintf("ID:%d y=%.1f", p.ID, p.Transform.Translation.Y())
			ebitenutil.DebugPrintAt(screen, label, int(x)-len(label)*3, int(y-size/2)-16)
		}
	}
}
