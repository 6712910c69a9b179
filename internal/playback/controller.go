// Package playback implements the play/pause/stop/resume state machine
// driving forward and reverse clip playback.
package playback

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/audio"
)

// State is the controller state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Direction selects the playback direction of a session.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// ParseDirection maps the wire representation to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("playback: direction %q: %w", s, apperr.ErrInvalidArgument)
}

// Progress is emitted after every position change.
type Progress struct {
	Path  string
	Frame int
	State State
}

// Status is a snapshot of the controller.
type Status struct {
	State      State
	Direction  Direction
	Frame      int
	SampleRate int
	Path       string
}

// Seconds returns the position in seconds, zero without a session.
func (s Status) Seconds() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(s.Frame) / float64(s.SampleRate)
}

type cmdKind int

const (
	cmdPlay cmdKind = iota
	cmdPause
	cmdStop
	cmdResume
)

type command struct {
	kind  cmdKind
	clip  *audio.Clip
	dir   Direction
	reply chan error
}

// Controller runs one playback session at a time.
//
// Concurrency model: a single internal loop (goroutine) owns all
// mutable state — the current clip, direction, position, and state.
// Public methods communicate with the loop through channels, so no
// mutexes are required. Position advances on a ticker while Playing;
// cancellation is cooperative and checked between ticks.
type Controller struct {
	tick   time.Duration
	notify func(Progress)

	cmdCh    chan command
	statusCh chan chan Status

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New creates a controller advancing position every tick. notify, if
// non-nil, is called from the controller loop after each position or
// state change and must return promptly.
func New(tick time.Duration, notify func(Progress)) *Controller {
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	c := &Controller{
		tick:     tick,
		notify:   notify,
		cmdCh:    make(chan command),
		statusCh: make(chan chan Status),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.stopped)

	var (
		state = Stopped
		clip  *audio.Clip
		dir   Direction
		pos   int
	)

	var ticker *time.Ticker
	var tickC <-chan time.Time

	startTicker := func() {
		if ticker == nil {
			ticker = time.NewTicker(c.tick)
			tickC = ticker.C
		} else {
			ticker.Reset(c.tick)
		}
	}
	pauseTicker := func() {
		if ticker != nil {
			ticker.Stop()
		}
	}
	defer pauseTicker()

	emit := func() {
		if c.notify == nil {
			return
		}
		p := Progress{Frame: pos, State: state}
		if clip != nil {
			p.Path = clip.Path
		}
		c.notify(p)
	}

	startFrame := func(d Direction, fc int) int {
		if d == Reverse {
			return fc - 1
		}
		return 0
	}

	for {
		select {
		case <-c.stopCh:
			return

		case <-tickC:
			if state != Playing || clip == nil {
				continue
			}
			advance := int(float64(clip.SampleRate) * c.tick.Seconds())
			if advance < 1 {
				advance = 1
			}
			fc := clip.FrameCount()
			if dir == Forward {
				pos += advance
				if pos >= fc {
					// End of file: back to Stopped with the position
					// reset, session kept for resume.
					state = Stopped
					pos = startFrame(dir, fc)
					pauseTicker()
				}
			} else {
				pos -= advance
				if pos < 0 {
					state = Stopped
					pos = startFrame(dir, fc)
					pauseTicker()
				}
			}
			emit()

		case cmd := <-c.cmdCh:
			var err error
			switch cmd.kind {
			case cmdPlay:
				// Starting while Playing implicitly stops the current
				// session first (last-writer-wins).
				resuming := state == Paused && clip == cmd.clip && dir == cmd.dir
				clip, dir = cmd.clip, cmd.dir
				if !resuming {
					pos = startFrame(dir, clip.FrameCount())
				}
				state = Playing
				startTicker()
				emit()

			case cmdPause:
				if state != Playing {
					err = fmt.Errorf("playback: pause while %s: %w", state, apperr.ErrInvalidState)
					break
				}
				state = Paused
				pauseTicker()
				emit()

			case cmdStop:
				if state == Stopped {
					err = fmt.Errorf("playback: stop while stopped: %w", apperr.ErrInvalidState)
					break
				}
				state = Stopped
				pos = startFrame(dir, clip.FrameCount())
				emit()
				// Stop discards the session; resume needs a new Play.
				clip = nil
				pauseTicker()

			case cmdResume:
				if clip == nil {
					err = fmt.Errorf("playback: resume without a session: %w", apperr.ErrInvalidState)
					break
				}
				if state == Playing {
					err = fmt.Errorf("playback: resume while playing: %w", apperr.ErrInvalidState)
					break
				}
				if state == Stopped {
					// Completed naturally; replay from the start in
					// the stored direction.
					pos = startFrame(dir, clip.FrameCount())
				}
				state = Playing
				startTicker()
				emit()
			}
			cmd.reply <- err

		case resp := <-c.statusCh:
			st := Status{State: state, Direction: dir, Frame: pos}
			if clip != nil {
				st.Path = clip.Path
				st.SampleRate = clip.SampleRate
			}
			resp <- st
		}
	}
}

func (c *Controller) send(cmd command) error {
	if c.closed.Load() {
		return fmt.Errorf("playback: controller closed: %w", apperr.ErrInvalidState)
	}
	cmd.reply = make(chan error, 1)
	select {
	case c.cmdCh <- cmd:
	case <-c.stopped:
		return fmt.Errorf("playback: controller closed: %w", apperr.ErrInvalidState)
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.stopped:
		return fmt.Errorf("playback: controller closed: %w", apperr.ErrInvalidState)
	}
}

// Play starts a session for the clip in the given direction. From
// Stopped the position resets to the direction-appropriate start; from
// Paused on the same clip and direction it resumes the stored
// position; while Playing the current session is replaced.
func (c *Controller) Play(clip *audio.Clip, dir Direction) error {
	if clip == nil || clip.FrameCount() == 0 {
		return fmt.Errorf("playback: empty clip: %w", apperr.ErrInvalidArgument)
	}
	return c.send(command{kind: cmdPlay, clip: clip, dir: dir})
}

// Pause freezes the position. Fails with ErrInvalidState unless Playing.
func (c *Controller) Pause() error {
	return c.send(command{kind: cmdPause})
}

// Stop ends the session and resets the position. Fails with
// ErrInvalidState when already Stopped.
func (c *Controller) Stop() error {
	return c.send(command{kind: cmdStop})
}

// Resume continues the stored session: from Paused at the frozen
// position, after a natural end from the start. Fails with
// ErrInvalidState when no session exists (never started, or stopped).
func (c *Controller) Resume() error {
	return c.send(command{kind: cmdResume})
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	if c.closed.Load() {
		return Status{}
	}
	resp := make(chan Status, 1)
	select {
	case c.statusCh <- resp:
	case <-c.stopped:
		return Status{}
	}
	select {
	case st := <-resp:
		return st
	case <-c.stopped:
		return Status{}
	}
}

// Close terminates the controller loop.
func (c *Controller) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	<-c.stopped
}
