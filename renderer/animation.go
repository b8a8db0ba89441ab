package renderer

import (
	"time"

	"github.com/achilleasa/polaris-rt/scene"
	"github.com/achilleasa/polaris-rt/types"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type AnimationKind uint8

const (
	// Slide the object along an axis.
	Translate AnimationKind = iota

	// Rotate the object around an axis through its local origin.
	Spin
)

func (k AnimationKind) String() string {
	switch k {
	case Translate:
		return "translate"
	case Spin:
		return "spin"
	}
	return "unknown"
}

// Animation tweens a scalar (distance or angle) and applies the per-step
// delta to a game object.
type Animation struct {
	Object scene.ObjectID
	Kind   AnimationKind

	// Translation direction or rotation axis.
	Axis types.Vec3

	// Play the tween back and forth instead of stopping at the end.
	PingPong bool

	from, to float32
	duration float32
	easing   ease.TweenFunc
	tween    *gween.Tween
	last     float32
	done     bool
}

// Create an animation that moves object by distance units along dir.
func NewTranslation(object scene.ObjectID, dir types.Vec3, distance float32, duration time.Duration, easing ease.TweenFunc) *Animation {
	return newAnimation(object, Translate, dir.Normalize(), distance, duration, easing)
}

// Create an animation that rotates object by angle radians around axis.
func NewSpin(object scene.ObjectID, axis types.Vec3, angle float32, duration time.Duration, easing ease.TweenFunc) *Animation {
	return newAnimation(object, Spin, axis.Normalize(), angle, duration, easing)
}

func newAnimation(object scene.ObjectID, kind AnimationKind, axis types.Vec3, amount float32, duration time.Duration, easing ease.TweenFunc) *Animation {
	if easing == nil {
		easing = ease.Linear
	}
	a := &Animation{
		Object:   object,
		Kind:     kind,
		Axis:     axis,
		from:     0,
		to:       amount,
		duration: float32(duration.Seconds()),
		easing:   easing,
	}
	a.tween = gween.New(a.from, a.to, a.duration, a.easing)
	return a
}

// Check whether the animation has run to completion.
func (a *Animation) Done() bool {
	return a.done
}

// Get the accumulated distance or angle applied so far.
func (a *Animation) Value() float32 {
	return a.last
}

// Advance the tween by dt and apply the delta to the graph.
func (a *Animation) step(graph *scene.Graph, dt time.Duration) error {
	if a.done {
		return nil
	}

	value, finished := a.tween.Update(float32(dt.Seconds()))
	if delta := value - a.last; delta != 0 {
		var err error
		switch a.Kind {
		case Translate:
			err = graph.Move(a.Object, a.Axis.Mul(delta))
		case Spin:
			err = graph.Rotate(a.Object, a.Axis, delta)
		}
		if err != nil {
			return err
		}
		a.last = value
	}

	if !finished {
		return nil
	}
	if !a.PingPong {
		a.done = true
		return nil
	}

	a.from, a.to = a.to, a.from
	a.tween = gween.New(a.from, a.to, a.duration, a.easing)
	return nil
}
