// Package object holds the drawable pieces of a catch screen: falling object
// sprites, the player paddle, and short-lived effects.
package object

import (
	"time"

	"github.com/tomz197/starcatch/internal/draw"
)

// Spawner allows effects to add new effects while updating.
type Spawner interface {
	Spawn(obj Object)
}

// UpdateContext provides all the information an object needs during update.
type UpdateContext struct {
	Delta   time.Duration
	Spawner Spawner
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas      // Half-block canvas in field units
	Writer *draw.ChunkWriter // Text overlays
}

// Object is a drawable and updatable effect.
type Object interface {
	// Update advances the object. Returns true if it should be removed.
	Update(ctx UpdateContext) (remove bool, err error)

	// Draw draws the object.
	Draw(ctx DrawContext) error
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}

// ShouldRenderBlink reports whether something flashing for remainingTime
// more seconds is visible this frame. Always true once time runs out.
func ShouldRenderBlink(remainingTime float64, frequency float64) bool {
	if remainingTime <= 0 {
		return true
	}
	phase := int(remainingTime * frequency)
	return phase%2 != 0
}
