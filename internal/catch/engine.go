package catch

import (
	"math/rand/v2"
	"time"

	"github.com/tomz197/starcatch/internal/physics"
)

// State is the lifecycle phase of an engine.
type State int

const (
	StateInactive State = iota // Not running, nothing scheduled
	StateActive                // Spawning and scoring
	StateGameOver              // Miss cap reached; waits for Restart
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// EventType identifies something that happened during a tick.
type EventType int

const (
	EventCatch EventType = iota
	EventMiss
	EventLevelUp
	EventGameOver
)

// Event is emitted by the engine for presentation layers (particles, HUD
// flashes). Events are buffered until drained.
type Event struct {
	Type   EventType
	Object FallingObject // Catch and miss only
	Score  int
	Level  int
}

// maxBufferedEvents bounds the event buffer when nobody drains it.
const maxBufferedEvents = 64

// Snapshot is a copy of the engine state for rendering.
type Snapshot struct {
	State     State
	Variant   string
	Objects   []FallingObject
	PlayerX   float64
	Score     int
	Level     int
	Missed    int
	MaxMissed int
}

// Engine runs one game session: it advances objects once per scheduled tick,
// resolves catches and misses, and reports progress to the host.
type Engine struct {
	variant Variant
	host    Host
	sched   Scheduler
	rng     *rand.Rand

	spawner *Spawner
	scorer  *Scorer
	tracker *Tracker

	state     State
	objects   []FallingObject
	events    []Event
	handle    TickHandle
	lastTick  time.Time
	lastSpawn time.Time
}

// NewEngine creates an inactive engine. A nil host is replaced with a no-op;
// a nil rng is seeded from the variant name so runs stay reproducible.
func NewEngine(v Variant, host Host, sched Scheduler, rng *rand.Rand) *Engine {
	if host == nil {
		host = HostFuncs{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(len(v.Name)), 0x5eed))
	}
	return &Engine{
		variant: v,
		host:    host,
		sched:   sched,
		rng:     rng,
		spawner: NewSpawner(v),
		scorer:  NewScorer(v.PointsPerLevel),
		tracker: NewTracker(v),
	}
}

// Variant returns the parameters the engine runs with.
func (e *Engine) Variant() Variant { return e.variant }

// State returns the current lifecycle phase.
func (e *Engine) State() State { return e.state }

// Start activates an inactive engine. Calling it on a running or finished
// engine does nothing; use Restart for those.
func (e *Engine) Start(now time.Time) {
	if e.state != StateInactive {
		return
	}
	e.reset(now)
	e.state = StateActive
	e.schedule()
}

// Restart resets score, misses and live objects and resumes spawning.
func (e *Engine) Restart(now time.Time) {
	e.cancel()
	e.reset(now)
	e.state = StateActive
	e.schedule()
}

// Stop deactivates the engine and cancels the pending tick.
func (e *Engine) Stop() {
	e.cancel()
	e.state = StateInactive
	e.objects = e.objects[:0]
	e.events = e.events[:0]
}

// Close stops the engine and asks the host to take over.
func (e *Engine) Close() {
	e.Stop()
	e.host.RequestClose()
}

// PointerMove forwards a pointer event to the tracker while active.
func (e *Engine) PointerMove(clientX float64, b *Bounds) {
	if e.state != StateActive {
		return
	}
	e.tracker.PointerMove(clientX, b)
}

// Nudge moves the player by dx field units while active.
func (e *Engine) Nudge(dx float64) {
	if e.state != StateActive {
		return
	}
	e.tracker.Nudge(dx)
}

// DrainEvents returns and clears the buffered events.
func (e *Engine) DrainEvents() []Event {
	if len(e.events) == 0 {
		return nil
	}
	out := make([]Event, len(e.events))
	copy(out, e.events)
	e.events = e.events[:0]
	return out
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	objs := make([]FallingObject, len(e.objects))
	copy(objs, e.objects)
	return Snapshot{
		State:     e.state,
		Variant:   e.variant.Name,
		Objects:   objs,
		PlayerX:   e.tracker.X(),
		Score:     e.scorer.Score(),
		Level:     e.scorer.Level(),
		Missed:    e.scorer.Missed(),
		MaxMissed: e.variant.MaxMissed,
	}
}

func (e *Engine) reset(now time.Time) {
	e.scorer.Reset()
	e.tracker.Reset()
	e.objects = e.objects[:0]
	e.events = e.events[:0]
	e.lastTick = now
	e.lastSpawn = now
}

func (e *Engine) schedule() {
	if e.sched == nil {
		return
	}
	e.handle = e.sched.RequestTick(e.tick)
}

func (e *Engine) cancel() {
	if e.sched != nil && e.handle != 0 {
		e.sched.CancelTick(e.handle)
	}
	e.handle = 0
}

// tick is one frame: spawn, move, resolve catches and misses, reschedule.
func (e *Engine) tick(now time.Time) {
	e.handle = 0
	if e.state != StateActive {
		return
	}

	dt := now.Sub(e.lastTick)
	if dt < 0 {
		dt = 0
	}
	if e.variant.MaxTickDelta > 0 && dt > e.variant.MaxTickDelta {
		dt = e.variant.MaxTickDelta
	}
	e.lastTick = now

	level := e.scorer.Level()
	if now.Sub(e.lastSpawn) >= SpawnInterval(e.variant, level) {
		e.objects = append(e.objects, e.spawner.Spawn(now, level, e.rng)...)
		e.lastSpawn = now
	}

	e.advance(dt.Seconds())

	if e.variant.MaxMissed > 0 && e.scorer.Missed() >= e.variant.MaxMissed {
		e.gameOver()
		return
	}
	e.schedule()
}

func (e *Engine) advance(dt float64) {
	v := e.variant
	player := e.tracker.X()

	kept := e.objects[:0]
	for _, o := range e.objects {
		prevY := o.Y
		o.Y += o.Speed * dt
		o.Age += dt
		o.X = physics.Clamp(o.BaseX+physics.Wobble(v.WobbleAmplitude, v.WobbleHz, o.Phase, o.Age), 0, v.Field.Width)

		if physics.SweptBand(prevY, o.Y, v.CatchTop, v.CatchBottom) && physics.WithinWindow(o.X, player, v.CatchTolerance) {
			e.caught(o)
			continue
		}
		if o.Y > v.Field.Height {
			e.missed(o)
			continue
		}
		kept = append(kept, o)
	}
	e.objects = kept
}

func (e *Engine) caught(o FallingObject) {
	score, levelUp := e.scorer.Award(o.Points)
	e.emit(Event{Type: EventCatch, Object: o, Score: score, Level: e.scorer.Level()})
	if levelUp {
		e.emit(Event{Type: EventLevelUp, Score: score, Level: e.scorer.Level()})
	}
	e.host.ReportScore(score)
}

func (e *Engine) missed(o FallingObject) {
	e.scorer.Miss()
	e.emit(Event{Type: EventMiss, Object: o, Score: e.scorer.Score(), Level: e.scorer.Level()})
}

func (e *Engine) gameOver() {
	e.state = StateGameOver
	e.objects = e.objects[:0]
	result := Result{
		Variant: e.variant.Name,
		Score:   e.scorer.Score(),
		Level:   e.scorer.Level(),
		Missed:  e.scorer.Missed(),
	}
	e.emit(Event{Type: EventGameOver, Score: result.Score, Level: result.Level})
	e.host.ReportGameOver(result)
}

func (e *Engine) emit(ev Event) {
	if len(e.events) >= maxBufferedEvents {
		copy(e.events, e.events[1:])
		e.events = e.events[:len(e.events)-1]
	}
	e.events = append(e.events, ev)
}
