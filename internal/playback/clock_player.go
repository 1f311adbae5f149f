package playback

import (
	"sync"
	"time"
)

const endedPollInterval = 500 * time.Millisecond

// ClockPlayer simulates a media player with the wall clock: position
// advances in real time while playing and the track ends when the position
// reaches the duration. It stands in for a real decoder the same way the
// relay treats tracks as opaque payloads.
//
// Signals are delivered on their own goroutines so a coordinator holding
// its lock while driving the player cannot deadlock on the callback.
type ClockPlayer struct {
	mu       sync.Mutex
	media    string
	duration float64
	playing  bool
	pos      float64
	posAt    time.Time
	notify   func(Signal)

	// DurationFunc maps a media id to a duration in seconds. Defaults to a
	// fixed length when unset.
	durationFor func(mediaID string) float64

	stop     chan struct{}
	stopOnce sync.Once
}

const defaultTrackDuration = 240.0

func NewClockPlayer() *ClockPlayer {
	p := &ClockPlayer{
		stop: make(chan struct{}),
	}
	go p.watchEnd()
	return p
}

// SetNotify registers the signal callback; call it before Load.
func (p *ClockPlayer) SetNotify(fn func(Signal)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
}

// SetDurationFunc overrides how track lengths are determined.
func (p *ClockPlayer) SetDurationFunc(fn func(mediaID string) float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.durationFor = fn
}

func (p *ClockPlayer) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *ClockPlayer) Load(mediaID string) {
	p.mu.Lock()
	p.media = mediaID
	p.pos = 0
	p.posAt = time.Now()
	p.playing = false
	if p.durationFor != nil {
		p.duration = p.durationFor(mediaID)
	} else {
		p.duration = defaultTrackDuration
	}
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		go fn(SignalReady)
	}
}

func (p *ClockPlayer) Play() {
	p.mu.Lock()
	if p.playing || p.media == "" {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.posAt = time.Now()
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		go fn(SignalPlaying)
	}
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.pos = p.currentLocked()
	p.playing = false
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		go fn(SignalPaused)
	}
}

func (p *ClockPlayer) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	p.pos = seconds
	p.posAt = time.Now()
}

func (p *ClockPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *ClockPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *ClockPlayer) currentLocked() float64 {
	if !p.playing {
		return p.pos
	}
	cur := p.pos + time.Since(p.posAt).Seconds()
	if p.duration > 0 && cur > p.duration {
		return p.duration
	}
	return cur
}

func (p *ClockPlayer) watchEnd() {
	ticker := time.NewTicker(endedPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			ended := p.playing && p.duration > 0 && p.currentLocked() >= p.duration
			var fn func(Signal)
			if ended {
				p.playing = false
				p.pos = p.duration
				fn = p.notify
			}
			p.mu.Unlock()
			if fn != nil {
				go fn(SignalEnded)
			}
		}
	}
}
