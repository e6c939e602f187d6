package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"cloudeng.io/logging/ctxlog"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/skyclock/internal/celestial"
	"github.com/talgya/skyclock/internal/season"
)

// maxEvents is how many recent events a world keeps in memory.
const maxEvents = 1000

// subscriberBuffer is the per-subscriber channel capacity. Events for a
// subscriber whose buffer is full are dropped.
const subscriberBuffer = 64

// Event categories.
const (
	CategorySunrise = "sunrise"
	CategorySeason  = "season"
	CategoryAdmin   = "admin"
)

// Event is a notable occurrence in the world.
type Event struct {
	Seq         int64  `json:"seq"` // Monotonic per world
	Tick        int64  `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// World is one dimension's clock: world time, season position and the
// sky derived from them. Tick is called from the engine goroutine; every
// other method is safe for concurrent use.
type World struct {
	ID   string
	Name string

	sky   celestial.Sky
	cycle *season.Cycle
	ctx   context.Context

	worldTime atomic.Int64
	state     atomic.Pointer[celestial.State]

	clockMu     sync.Mutex
	nextSunrise int64
	subSeason   season.SubSeason

	eventsMu sync.RWMutex
	events   []Event
	lastSeq  int64
	savedSeq int64

	subsMu    sync.Mutex
	subs      map[int]chan Event
	nextSubID int
}

// NewWorld creates a world at the given world time and season cycle
// position. An empty id allocates a new one. The logger in ctx, if any,
// is used for the world's log lines.
func NewWorld(ctx context.Context, id, name string, sky celestial.Sky, worldTime, cycleTicks int64) *World {
	if id == "" {
		id = uuid.NewString()
	}
	w := &World{
		ID:    id,
		Name:  name,
		sky:   sky,
		cycle: season.NewCycle(sky.Calendar, 0),
		ctx:   ctxlog.WithAttributes(ctx, "world", name, "world_id", id),
		subs:  make(map[int]chan Event),
	}
	w.cycle.Set(cycleTicks)
	w.worldTime.Store(worldTime)
	w.subSeason = w.cycle.Snapshot().SubSeason()
	w.nextSunrise = sky.NextSunrise(worldTime, w.cycle.Ticks())
	w.refresh(worldTime, w.cycle.Ticks())
	return w
}

// Tick moves the world to worldTime. The season cycle advances by one tick
// when seasons are enabled.
func (w *World) Tick(worldTime int64) {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()

	w.worldTime.Store(worldTime)
	if w.sky.SeasonsEnabled {
		w.cycle.Advance()
	}
	cycleTick := w.cycle.Ticks()
	w.refresh(worldTime, cycleTick)

	if sub := w.cycle.Snapshot().SubSeason(); sub != w.subSeason {
		prev := w.subSeason
		w.subSeason = sub
		w.emit(worldTime, CategorySeason, fmt.Sprintf("%s gives way to %s", prev, sub))
	}

	if worldTime >= w.nextSunrise {
		// Polar night and midnight sun lock the angle; the solver's answer
		// is only a placeholder until the next midnight reschedule.
		if w.sky.HasSunrise(cycleTick) {
			state := w.Sky()
			w.emit(worldTime, CategorySunrise, fmt.Sprintf("Sunrise on %s, %s ticks of daylight",
				SimTime(worldTime), humanize.Comma(state.Daytime)))
		}
		w.nextSunrise = w.sky.NextSunrise(worldTime, cycleTick)
	} else if floorMod(worldTime, TicksPerDay) == midnight {
		// Pick up the day length of the day that is about to start.
		w.nextSunrise = w.sky.NextSunrise(worldTime, cycleTick)
	}
}

// midnight is the world time of day at which the sun is lowest.
const midnight = 3 * TicksPerDay / 4

// Day logs the daily report.
func (w *World) Day(tick int64) {
	state := w.Sky()
	w.eventsMu.RLock()
	total := w.lastSeq
	w.eventsMu.RUnlock()

	ctxlog.Logger(w.ctx).Info("daily report",
		"sim_time", SimTime(tick),
		"calendar", w.Calendar().String(),
		"daylight", humanize.Comma(state.Daytime)+" ticks",
		"next_sunrise", humanize.Comma(w.NextSunrise()),
		"events", humanize.Comma(total),
	)
}

// SetSubSeason moves the season cycle to the start of sub.
func (w *World) SetSubSeason(sub season.SubSeason) {
	w.SetCycleTick(w.cycle.Calendar().StartOf(sub))
}

// SetCycleTick moves the season cycle to an arbitrary position. The value
// is reduced into the cycle.
func (w *World) SetCycleTick(ticks int64) {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()

	w.cycle.Set(ticks)
	worldTime := w.worldTime.Load()
	cycleTick := w.cycle.Ticks()
	w.subSeason = w.cycle.Snapshot().SubSeason()
	w.nextSunrise = w.sky.NextSunrise(worldTime, cycleTick)
	w.refresh(worldTime, cycleTick)

	w.emit(worldTime, CategoryAdmin, fmt.Sprintf("Season set to %s", w.cycle.Snapshot()))
}

// refresh publishes a new sky snapshot for readers.
func (w *World) refresh(worldTime, cycleTick int64) {
	state := w.sky.State(worldTime, cycleTick)
	w.state.Store(&state)
}

// Sky returns the sky at the most recent tick.
func (w *World) Sky() celestial.State {
	return *w.state.Load()
}

// SkyModel returns the sky configuration this world evaluates.
func (w *World) SkyModel() celestial.Sky {
	return w.sky
}

// WorldTime returns the most recent world time.
func (w *World) WorldTime() int64 {
	return w.worldTime.Load()
}

// CycleTicks returns the raw season cycle counter.
func (w *World) CycleTicks() int64 {
	return w.cycle.Ticks()
}

// Calendar returns the current season calendar position.
func (w *World) Calendar() season.Time {
	return w.cycle.Snapshot()
}

// NextSunrise returns the world time at which the next sunrise event will
// fire.
func (w *World) NextSunrise() int64 {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()
	return w.nextSunrise
}

// emit records an event and fans it out to subscribers.
func (w *World) emit(tick int64, category, description string) {
	w.eventsMu.Lock()
	w.lastSeq++
	e := Event{
		Seq:         w.lastSeq,
		Tick:        tick,
		Description: description,
		Category:    category,
	}
	w.events = append(w.events, e)
	if len(w.events) > maxEvents {
		w.events = w.events[len(w.events)-maxEvents:]
	}
	w.eventsMu.Unlock()

	ctxlog.Logger(w.ctx).Debug("event", "category", category, "tick", tick, "description", description)

	w.subsMu.Lock()
	for _, ch := range w.subs {
		select {
		case ch <- e:
		default:
		}
	}
	w.subsMu.Unlock()
}

// Events returns up to limit of the most recent events, oldest first.
// A limit <= 0 returns all retained events.
func (w *World) Events(limit int) []Event {
	w.eventsMu.RLock()
	defer w.eventsMu.RUnlock()

	start := 0
	if limit > 0 && len(w.events) > limit {
		start = len(w.events) - limit
	}
	out := make([]Event, len(w.events)-start)
	copy(out, w.events[start:])
	return out
}

// RestoreEvents replaces the in-memory history with previously saved
// events. They are treated as already persisted.
func (w *World) RestoreEvents(events []Event) {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()

	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}
	w.events = append([]Event(nil), events...)
	for _, e := range events {
		if e.Seq > w.lastSeq {
			w.lastSeq = e.Seq
		}
	}
	w.savedSeq = w.lastSeq
}

// UnsavedEvents returns retained events that have not been marked saved.
func (w *World) UnsavedEvents() []Event {
	w.eventsMu.RLock()
	defer w.eventsMu.RUnlock()

	var out []Event
	for _, e := range w.events {
		if e.Seq > w.savedSeq {
			out = append(out, e)
		}
	}
	return out
}

// MarkSaved records that every event up to and including seq is persisted.
func (w *World) MarkSaved(seq int64) {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()
	if seq > w.savedSeq {
		w.savedSeq = seq
	}
}

// Subscribe registers a new event listener.
func (w *World) Subscribe() (int, <-chan Event) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	w.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	w.subs[w.nextSubID] = ch
	return w.nextSubID, ch
}

// Unsubscribe removes a listener and closes its channel.
func (w *World) Unsubscribe(id int) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	if ch, ok := w.subs[id]; ok {
		delete(w.subs, id)
		close(ch)
	}
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
