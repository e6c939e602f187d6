// Package engine provides the tick loop and the world clock it drives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/skyclock/internal/season"
)

// Tick schedule.
const (
	TicksPerSecond  = 20
	TicksPerHour    = season.DayDuration / 24 // 1000 ticks = 1 sim-hour
	TicksPerDay     = season.DayDuration
	DefaultInterval = time.Second / TicksPerSecond

	// World time 0 is 06:00 on day 1.
	timeOfDayOffset = 6 * TicksPerHour
)

// Engine drives a world forward one tick at a time.
type Engine struct {
	Interval time.Duration // Base tick interval at speed 1

	// Callbacks, populated during setup.
	OnTick     func(tick int64) // Every tick
	OnDay      func(tick int64) // Every TicksPerDay ticks
	OnAutosave func(tick int64) // Every AutosaveEvery ticks
	// AutosaveEvery is the autosave period in ticks; 0 disables it.
	AutosaveEvery int64

	tick    atomic.Int64
	speed   atomic.Uint64 // float64 bits
	running atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

// NewEngine creates an engine at tick start running at speed 1.
func NewEngine(start int64) *Engine {
	e := &Engine{
		Interval: DefaultInterval,
		stop:     make(chan struct{}),
	}
	e.tick.Store(start)
	e.SetSpeed(1)
	return e
}

// Tick returns the most recently processed tick.
func (e *Engine) Tick() int64 {
	return e.tick.Load()
}

// Speed returns the speed multiplier: 1 = real time, 0 = paused.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.speed.Store(math.Float64bits(speed))
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the tick loop. Blocks until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("tick engine started", "tick", e.Tick(), "speed", e.Speed())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick engine stopped", "tick", e.Tick(), "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("tick engine stopped", "tick", e.Tick())
			return
		case <-timer.C:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			timer.Reset(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()

		target := time.Duration(float64(e.Interval) / speed)
		wait := target - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Stop halts the tick loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
}

// step advances by one tick and fires the due callbacks.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if tick%TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(tick)
	}
	if e.AutosaveEvery > 0 && tick%e.AutosaveEvery == 0 && e.OnAutosave != nil {
		e.OnAutosave(tick)
	}
}

// SimTime returns a human-readable clock for a world time, e.g.
// "Day 1,204, 06:30".
func SimTime(worldTime int64) string {
	if worldTime < 0 {
		worldTime = 0
	}
	shifted := worldTime + timeOfDayOffset
	day := shifted/TicksPerDay + 1
	ofDay := shifted % TicksPerDay
	hours := ofDay / TicksPerHour
	minutes := ofDay % TicksPerHour * 60 / TicksPerHour
	return fmt.Sprintf("Day %s, %02d:%02d", humanize.Comma(day), hours, minutes)
}
