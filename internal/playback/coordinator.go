package playback

import (
	"math"
	"sync"
	"time"

	"tuneroom/internal/relay"
)

// State is the coordinator's view of the local media player.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Signal is a state-change notification from the player.
type Signal int

const (
	SignalReady Signal = iota
	SignalPlaying
	SignalPaused
	SignalEnded
)

// Player is the media-player control surface the coordinator drives. The
// coordinator never decodes or renders media itself.
type Player interface {
	Load(mediaID string)
	Play()
	Pause()
	SeekTo(seconds float64)
	CurrentTime() float64
	Duration() float64
}

// Emitter is the outbound half of the room channel the coordinator uses to
// announce its own transitions.
type Emitter interface {
	PlayTrack(track relay.Track) error
	PauseTrack() error
	ResumeTrack() error
	SeekTrack(seconds float64) error
}

// expectation records a player transition that was provoked by a remote
// event. When the player reports it, the matching expectation is consumed
// and the transition is not re-emitted, so a relayed pause cannot bounce
// back into the room as a second pause.
type expectation int

const (
	expectPlay expectation = iota
	expectPause
)

const (
	defaultDriftInterval  = 30 * time.Second
	defaultDriftThreshold = 3.0 // seconds
)

// Config wires a Coordinator.
type Config struct {
	Player  Player
	Emitter Emitter
	// OnAdvance fires when the current track ends. Advancing the queue is a
	// local decision; it is never relayed.
	OnAdvance func()
	// Drift correction knobs; zero values pick the defaults (30s / 3s).
	DriftInterval  time.Duration
	DriftThreshold float64
}

// Coordinator reconciles the local player against inbound transport events
// and periodically re-asserts its own position to correct drift. One
// instance per connected client; nothing here is shared.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	current  *relay.Track
	expected []expectation
	announce bool

	// last authoritative position and when it was recorded; while playing,
	// the expected position extrapolates from here by wall clock.
	position   float64
	positionAt time.Time

	player  Player
	emitter Emitter

	onAdvance      func()
	driftInterval  time.Duration
	driftThreshold float64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewCoordinator(cfg Config) *Coordinator {
	c := &Coordinator{
		state:          StateIdle,
		player:         cfg.Player,
		emitter:        cfg.Emitter,
		onAdvance:      cfg.OnAdvance,
		driftInterval:  cfg.DriftInterval,
		driftThreshold: cfg.DriftThreshold,
		stop:           make(chan struct{}),
	}
	if c.driftInterval <= 0 {
		c.driftInterval = defaultDriftInterval
	}
	if c.driftThreshold <= 0 {
		c.driftThreshold = defaultDriftThreshold
	}
	go c.run()
	return c
}

// Close stops the drift ticker.
func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Snapshot returns the current state for display.
func (c *Coordinator) Snapshot() (state State, track *relay.Track, position, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state = c.state
	track = c.current
	if c.state == StatePlaying {
		position = c.player.CurrentTime()
	} else {
		position = c.position
	}
	duration = c.player.Duration()
	return
}

// SetTrack starts playing a locally-chosen track. The track-changed
// announcement goes out once the player reports ready.
func (c *Coordinator) SetTrack(track relay.Track) {
	c.mu.Lock()
	c.current = &track
	c.state = StateLoading
	c.position = 0
	c.positionAt = time.Now()
	c.expected = nil
	c.announce = true
	c.mu.Unlock()
	c.player.Load(track.MediaID)
}

// TogglePlay pauses or resumes based on the current state. The resulting
// transport event is emitted when the player reports the change.
func (c *Coordinator) TogglePlay() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case StatePlaying:
		c.player.Pause()
	case StatePaused:
		c.player.Play()
	}
}

// Seek jumps to a position chosen by the local user and tells the room.
// The raw value is relayed; there is no bounds check against the duration.
func (c *Coordinator) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	c.player.SeekTo(seconds)
	c.mu.Lock()
	c.position = seconds
	c.positionAt = time.Now()
	emitter := c.emitter
	c.mu.Unlock()
	_ = emitter.SeekTrack(seconds)
}

// Skip behaves like the track ending: advance locally, relay nothing.
func (c *Coordinator) Skip() {
	if c.onAdvance != nil {
		c.onAdvance()
	}
}

// ApplyTrackChanged handles an inbound track-changed event. The load and
// subsequent autoplay are remote-sourced, so neither is re-announced.
func (c *Coordinator) ApplyTrackChanged(track relay.Track) {
	c.mu.Lock()
	if c.current != nil && c.current.MediaID == track.MediaID {
		c.mu.Unlock()
		return
	}
	c.current = &track
	c.state = StateLoading
	c.position = 0
	c.positionAt = time.Now()
	c.expected = nil
	c.announce = false
	c.mu.Unlock()
	c.player.Load(track.MediaID)
}

// ApplyPause handles an inbound track-paused event.
func (c *Coordinator) ApplyPause() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.expected = append(c.expected, expectPause)
	c.mu.Unlock()
	c.player.Pause()
}

// ApplyResume handles an inbound track-resumed event.
func (c *Coordinator) ApplyResume() {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.expected = append(c.expected, expectPlay)
	c.mu.Unlock()
	c.player.Play()
}

// ApplySeek handles an inbound track-seeked event. Whichever client emitted
// most recently wins; this position becomes the new authoritative one.
func (c *Coordinator) ApplySeek(seconds float64) {
	c.player.SeekTo(seconds)
	c.mu.Lock()
	c.position = seconds
	c.positionAt = time.Now()
	c.mu.Unlock()
}

// HandleSignal is called by the player when its state changes.
func (c *Coordinator) HandleSignal(sig Signal) {
	var (
		emitResume, emitPause, announce bool
		announceTrack                   relay.Track
		advance                         func()
	)

	c.mu.Lock()
	switch sig {
	case SignalReady:
		if c.state != StateLoading {
			c.mu.Unlock()
			return
		}
		if c.announce && c.current != nil {
			announce = true
			announceTrack = *c.current
			c.announce = false
		}
		if !announce {
			// remote-sourced load: the autoplay below must not re-emit
			c.expected = append(c.expected, expectPlay)
		}
		c.mu.Unlock()
		if announce {
			_ = c.emitter.PlayTrack(announceTrack)
		}
		c.player.Play()
		return

	case SignalPlaying:
		c.state = StatePlaying
		c.position = c.player.CurrentTime()
		c.positionAt = time.Now()
		emitResume = !c.consume(expectPlay)

	case SignalPaused:
		if c.state == StateEnded {
			c.mu.Unlock()
			return
		}
		c.state = StatePaused
		c.position = c.player.CurrentTime()
		c.positionAt = time.Now()
		emitPause = !c.consume(expectPause)

	case SignalEnded:
		c.state = StateEnded
		c.position = 0
		c.positionAt = time.Now()
		c.expected = nil
		advance = c.onAdvance
	}
	c.mu.Unlock()

	if emitResume {
		_ = c.emitter.ResumeTrack()
	}
	if emitPause {
		_ = c.emitter.PauseTrack()
	}
	if advance != nil {
		advance()
	}
}

func (c *Coordinator) consume(e expectation) bool {
	for i, exp := range c.expected {
		if exp == e {
			c.expected = append(c.expected[:i], c.expected[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Coordinator) run() {
	ticker := time.NewTicker(c.driftInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.correctDrift()
		}
	}
}

// correctDrift compares where playback should be, extrapolated from the
// last authoritative position, with where the player actually is. Past the
// threshold it re-asserts the player's position to the room. Best effort:
// there is no central authority on the true position.
func (c *Coordinator) correctDrift() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	want := c.position + time.Since(c.positionAt).Seconds()
	got := c.player.CurrentTime()
	if math.Abs(want-got) <= c.driftThreshold {
		c.mu.Unlock()
		return
	}
	c.position = got
	c.positionAt = time.Now()
	c.mu.Unlock()
	_ = c.emitter.SeekTrack(got)
}
