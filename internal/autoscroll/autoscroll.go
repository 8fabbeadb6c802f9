// Package autoscroll advances a line cursor through a tab at a fixed interval.
//
// A [Controller] is either stopped or running. While running it keeps exactly one pending tick with its
// [Scheduler]; each tick moves the cursor down one line and arms the next tick, until the cursor reaches
// the last line, where the controller stops without wrapping.
//
// Timers are never trusted to be cancelled in time. Every arm bumps a generation counter and a fired
// callback whose generation is stale is dropped.
package autoscroll

import (
	"sync"
	"time"
)

const (
	MinInterval     = 500 * time.Millisecond
	MaxInterval     = 5 * time.Second
	IntervalStep    = 500 * time.Millisecond
	DefaultInterval = 2 * time.Second
)

// Scheduler runs f once after d. The returned cancel func prevents f from running if it has not started.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// TimerScheduler schedules with [time.AfterFunc]. Callbacks run on their own goroutine.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Hooks are called after the controller state changed, outside its lock.
type Hooks struct {
	// OnAdvance receives the new line index after a tick.
	OnAdvance func(index int)
	// OnReset is called when the cursor returns to the top.
	OnReset func()
	// OnStateChange receives the new running state.
	OnStateChange func(running bool)
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	sched    Scheduler
	hooks    Hooks
	lines    int
	index    int
	running  bool
	interval time.Duration
	gen      uint64
	cancel   func()
}

// Option configures a [Controller].
type Option func(*Controller)

// WithScheduler replaces the default [TimerScheduler].
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithHooks sets the state change callbacks.
func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithInterval sets the starting interval. The value is clamped like [Controller.SetInterval].
func WithInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = ClampInterval(d) }
}

// New creates a stopped controller over a tab with the given number of lines.
func New(lines int, opts ...Option) *Controller {
	c := &Controller{
		sched:    TimerScheduler{},
		lines:    max(lines, 0),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClampInterval bounds d to [MinInterval, MaxInterval] and snaps it to the nearest [IntervalStep].
func ClampInterval(d time.Duration) time.Duration {
	d = min(max(d, MinInterval), MaxInterval)
	return d.Round(IntervalStep)
}

// Index returns the current line.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Running reports whether a tick is armed.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Interval returns the current tick interval.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Lines returns the number of lines being scrolled.
func (c *Controller) Lines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines
}

// Start arms the first tick. It is a no-op when already running.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.armLocked()
	c.mu.Unlock()

	c.stateChanged(true)
}

// Stop cancels the pending tick. It is a no-op when already stopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()

	c.stateChanged(false)
}

// Toggle starts a stopped controller and stops a running one. It returns the new running state.
func (c *Controller) Toggle() bool {
	if c.Running() {
		c.Stop()
		return false
	}
	c.Start()
	return true
}

// Reset stops the controller and moves the cursor to the first line.
func (c *Controller) Reset() {
	c.mu.Lock()
	wasRunning := c.running
	c.stopLocked()
	c.index = 0
	c.mu.Unlock()

	if wasRunning {
		c.stateChanged(false)
	}
	if c.hooks.OnReset != nil {
		c.hooks.OnReset()
	}
}

// SetInterval clamps d and applies it. A running controller re-arms with the new interval.
func (c *Controller) SetInterval(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.interval = ClampInterval(d)
	if c.running {
		c.armLocked()
	}
	return c.interval
}

// Faster shortens the interval by one step.
func (c *Controller) Faster() time.Duration {
	return c.SetInterval(c.Interval() - IntervalStep)
}

// Slower lengthens the interval by one step.
func (c *Controller) Slower() time.Duration {
	return c.SetInterval(c.Interval() + IntervalStep)
}

// SetLines replaces the line count, for example when a different song is opened. The cursor is kept
// inside the new range.
func (c *Controller) SetLines(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = max(n, 0)
	if c.index >= c.lines {
		c.index = max(c.lines-1, 0)
	}
}

// armLocked cancels any pending tick and schedules a new one for the next generation.
func (c *Controller) armLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = c.sched.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.running = false
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return
	}

	c.cancel = nil
	next := c.index + 1
	if next >= c.lines {
		c.stopLocked()
		c.mu.Unlock()
		c.stateChanged(false)
		return
	}

	c.index = next
	c.armLocked()
	c.mu.Unlock()

	if c.hooks.OnAdvance != nil {
		c.hooks.OnAdvance(next)
	}
}

func (c *Controller) stateChanged(running bool) {
	if c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(running)
	}
}
