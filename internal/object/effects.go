package object

import (
	"time"
)

// maxEffects caps live effects so a burst-heavy frame cannot grow unbounded.
const maxEffects = 512

// Effects owns a set of short-lived objects. Objects spawned during Update
// join on the next Update.
type Effects struct {
	objects []Object
	toSpawn []Object
}

// Spawn implements Spawner.
func (e *Effects) Spawn(obj Object) {
	if len(e.objects)+len(e.toSpawn) >= maxEffects {
		ReleaseObject(obj)
		return
	}
	e.toSpawn = append(e.toSpawn, obj)
}

// Len returns the number of live effects, including ones not yet flushed.
func (e *Effects) Len() int {
	return len(e.objects) + len(e.toSpawn)
}

// Update advances every effect by dt and drops finished ones.
func (e *Effects) Update(dt time.Duration) error {
	e.objects = append(e.objects, e.toSpawn...)
	e.toSpawn = e.toSpawn[:0]

	ctx := UpdateContext{Delta: dt, Spawner: e}
	kept := e.objects[:0]
	for _, obj := range e.objects {
		remove, err := obj.Update(ctx)
		if err != nil {
			return err
		}
		if remove {
			ReleaseObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	clear(e.objects[len(kept):])
	e.objects = kept
	return nil
}

// Draw draws every live effect.
func (e *Effects) Draw(ctx DrawContext) error {
	for _, obj := range e.objects {
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset releases every effect.
func (e *Effects) Reset() {
	for _, obj := range e.objects {
		ReleaseObject(obj)
	}
	for _, obj := range e.toSpawn {
		ReleaseObject(obj)
	}
	clear(e.objects)
	clear(e.toSpawn)
	e.objects = e.objects[:0]
	e.toSpawn = e.toSpawn[:0]
}
