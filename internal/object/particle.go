package object

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tomz197/starcatch/internal/draw"
)

// particlePool reuses Particle values across bursts.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived visual effect.
type Particle struct {
	X, Y        float64 // Position in field units
	VX, VY      float64 // Velocity
	Lifetime    float64 // Seconds remaining
	MaxLifetime float64 // Initial lifetime (for fade calculation)
	Drag        float64 // Velocity decay (1.0 = no drag)
	Gravity     float64 // Downward acceleration
	Ink         draw.Ink
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, lifetime float64, ink draw.Ink) *Particle {
	p := particlePool.Get().(*Particle)
	*p = Particle{
		X:           x,
		Y:           y,
		VX:          vx,
		VY:          vy,
		Lifetime:    lifetime,
		MaxLifetime: lifetime,
		Drag:        0.92,
		Ink:         ink,
	}
	return p
}

// Release returns the particle to the pool.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// SpawnBurst creates count particles flying out of (x, y) in a circle.
func SpawnBurst(x, y float64, count int, speed, lifetime float64, ink draw.Ink, spawner Spawner) {
	if spawner == nil {
		return
	}
	for i := 0; i < count; i++ {
		angle := rand.Float64() * 2 * math.Pi
		spd := speed * (0.5 + rand.Float64())
		life := lifetime * (0.5 + rand.Float64()*0.5)
		spawner.Spawn(NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, life, ink))
	}
}

// SpawnSplash creates particles that spray upward and fall back, for objects
// hitting the floor.
func SpawnSplash(x, y float64, count int, ink draw.Ink, spawner Spawner) {
	if spawner == nil {
		return
	}
	for i := 0; i < count; i++ {
		angle := -math.Pi/2 + (rand.Float64()-0.5)*math.Pi*0.8
		spd := 60 + rand.Float64()*60
		p := NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, 0.4+rand.Float64()*0.3, ink)
		p.Gravity = 300
		p.Drag = 1
		spawner.Spawn(p)
	}
}

// Update moves the particle and checks lifetime.
func (p *Particle) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true, nil
	}

	dragFactor := math.Pow(p.Drag, dt*60) // Normalized to ~60fps
	p.VX *= dragFactor
	p.VY = p.VY*dragFactor + p.Gravity*dt

	p.X += p.VX * dt
	p.Y += p.VY * dt
	return false, nil
}

// Draw renders the particle as a single pixel, skipping it once mostly faded.
func (p *Particle) Draw(ctx DrawContext) error {
	if p.MaxLifetime > 0 && p.Lifetime/p.MaxLifetime < 0.25 {
		return nil
	}
	ctx.Canvas.SetFloat(p.X, p.Y, p.Ink)
	return nil
}
