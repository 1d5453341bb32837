package netcomponents

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// TransformData is the replicated pose of an entity. Translation is the
// feet position for players.
type TransformData struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

var Transform = donburi.NewComponentType[TransformData]()

// NewTransform returns a transform at p with no rotation.
func NewTransform(p mgl64.Vec3) TransformData {
	return TransformData{Translation: p, Rotation: mgl64.QuatIdent()}
}

// LerpTransform blends two transforms. t == 0 returns from exactly and
// t == 1 returns to exactly; in between, translation is blended linearly and
// rotation with a normalized linear blend along the shorter arc.
func LerpTransform(from, to TransformData, t float64) TransformData {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	return TransformData{
		Translation: lerpVec3(from.Translation, to.Translation, t),
		Rotation:    nlerp(from.Rotation, to.Rotation, t),
	}
}

func lerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func nlerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	q := mgl64.Quat{
		W: a.W + (b.W-a.W)*t,
		V: lerpVec3(a.V, b.V, t),
	}
	if q.Len() == 0 {
		return a
	}
	return q.Normalize()
}
