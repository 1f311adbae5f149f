package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuneroom/internal/relay"
)

type fakePlayer struct {
	mu       sync.Mutex
	loaded   []string
	plays    int
	pauses   int
	seeks    []float64
	time     float64
	duration float64
}

func (p *fakePlayer) Load(mediaID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = append(p.loaded, mediaID)
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
}

func (p *fakePlayer) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	p.time = seconds
}

func (p *fakePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.time
}

func (p *fakePlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *fakePlayer) setTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.time = t
}

type fakeEmitter struct {
	mu       sync.Mutex
	announce []relay.Track
	pauses   int
	resumes  int
	seeks    []float64
}

func (e *fakeEmitter) PlayTrack(track relay.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.announce = append(e.announce, track)
	return nil
}

func (e *fakeEmitter) PauseTrack() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
	return nil
}

func (e *fakeEmitter) ResumeTrack() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumes++
	return nil
}

func (e *fakeEmitter) SeekTrack(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, seconds)
	return nil
}

func (e *fakeEmitter) counts() (announces, pauses, resumes, seeks int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.announce), e.pauses, e.resumes, len(e.seeks)
}

func newTestCoordinator(onAdvance func()) (*Coordinator, *fakePlayer, *fakeEmitter) {
	player := &fakePlayer{duration: 240}
	emitter := &fakeEmitter{}
	c := NewCoordinator(Config{
		Player:        player,
		Emitter:       emitter,
		OnAdvance:     onAdvance,
		DriftInterval: time.Hour, // drift disabled unless a test wants it
	})
	return c, player, emitter
}

var testTrack = relay.Track{ID: "t1", MediaID: "m1", Title: "A Song"}

func TestLocalTrackIsAnnounced(t *testing.T) {
	c, player, emitter := newTestCoordinator(nil)
	defer c.Close()

	c.SetTrack(testTrack)
	assert.Equal(t, []string{"m1"}, player.loaded)
	state, track, _, _ := c.Snapshot()
	assert.Equal(t, StateLoading, state)
	require.NotNil(t, track)

	c.HandleSignal(SignalReady)
	announces, _, _, _ := emitter.counts()
	assert.Equal(t, 1, announces, "track-changed goes out once the player is ready")
	assert.Equal(t, 1, player.plays, "autoplay after ready")

	c.HandleSignal(SignalPlaying)
	state, _, _, _ = c.Snapshot()
	assert.Equal(t, StatePlaying, state)
}

func TestRemoteTrackIsNotReannounced(t *testing.T) {
	c, player, emitter := newTestCoordinator(nil)
	defer c.Close()

	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	announces, _, resumes, _ := emitter.counts()
	assert.Zero(t, announces, "remote track change must not bounce back")
	assert.Zero(t, resumes, "remote autoplay must not bounce back")
	assert.Equal(t, 1, player.plays)

	// the same track again is a no-op
	c.ApplyTrackChanged(testTrack)
	assert.Equal(t, []string{"m1"}, player.loaded)
}

func TestLocalPauseEmitsOnce(t *testing.T) {
	c, player, emitter := newTestCoordinator(nil)
	defer c.Close()
	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	c.TogglePlay()
	assert.Equal(t, 1, player.pauses)
	c.HandleSignal(SignalPaused)

	_, pauses, _, _ := emitter.counts()
	assert.Equal(t, 1, pauses)
	state, _, _, _ := c.Snapshot()
	assert.Equal(t, StatePaused, state)
}

func TestRemotePauseIsSuppressed(t *testing.T) {
	c, player, emitter := newTestCoordinator(nil)
	defer c.Close()
	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	c.ApplyPause()
	assert.Equal(t, 1, player.pauses)
	c.HandleSignal(SignalPaused)
	_, pauses, _, _ := emitter.counts()
	assert.Zero(t, pauses, "an inbound pause must not be re-emitted")

	// but only that one transition is suppressed: a later local pause emits
	c.ApplyResume()
	c.HandleSignal(SignalPlaying)
	c.TogglePlay()
	c.HandleSignal(SignalPaused)
	_, pauses, resumes, _ := emitter.counts()
	assert.Equal(t, 1, pauses)
	assert.Zero(t, resumes, "the remote resume must not be re-emitted either")
}

func TestRemotePauseIgnoredWhenNotPlaying(t *testing.T) {
	c, player, _ := newTestCoordinator(nil)
	defer c.Close()
	c.ApplyPause()
	assert.Zero(t, player.pauses)
}

func TestLocalSeekEmitsRemoteSeekDoesNot(t *testing.T) {
	c, player, emitter := newTestCoordinator(nil)
	defer c.Close()
	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	c.Seek(42.5)
	_, _, _, seeks := emitter.counts()
	assert.Equal(t, 1, seeks)
	assert.Equal(t, []float64{42.5}, player.seeks)

	c.ApplySeek(99)
	_, _, _, seeks = emitter.counts()
	assert.Equal(t, 1, seeks, "remote seek must not be re-emitted")
	assert.Equal(t, []float64{42.5, 99}, player.seeks)
}

func TestDriftCorrectionEmitsSeek(t *testing.T) {
	player := &fakePlayer{duration: 240}
	emitter := &fakeEmitter{}
	c := NewCoordinator(Config{
		Player:         player,
		Emitter:        emitter,
		DriftInterval:  20 * time.Millisecond,
		DriftThreshold: 1,
	})
	defer c.Close()

	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	// the player jumps far from the expected position
	player.setTime(100)

	require.Eventually(t, func() bool {
		_, _, _, seeks := emitter.counts()
		return seeks >= 1
	}, time.Second, 5*time.Millisecond)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	assert.Equal(t, 100.0, emitter.seeks[0])
}

func TestDriftWithinThresholdStaysQuiet(t *testing.T) {
	player := &fakePlayer{duration: 240}
	emitter := &fakeEmitter{}
	c := NewCoordinator(Config{
		Player:         player,
		Emitter:        emitter,
		DriftInterval:  20 * time.Millisecond,
		DriftThreshold: 3,
	})
	defer c.Close()

	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)

	time.Sleep(100 * time.Millisecond)
	_, _, _, seeks := emitter.counts()
	assert.Zero(t, seeks)
}

func TestEndedAdvancesLocally(t *testing.T) {
	advanced := make(chan struct{}, 1)
	c, _, emitter := newTestCoordinator(func() { advanced <- struct{}{} })
	defer c.Close()

	c.ApplyTrackChanged(testTrack)
	c.HandleSignal(SignalReady)
	c.HandleSignal(SignalPlaying)
	c.HandleSignal(SignalEnded)

	select {
	case <-advanced:
	default:
		t.Fatal("expected the queue-advance callback")
	}
	state, _, _, _ := c.Snapshot()
	assert.Equal(t, StateEnded, state)

	announces, pauses, resumes, seeks := emitter.counts()
	assert.Zero(t, announces+pauses+resumes+seeks, "ending a track is a local decision, nothing is relayed")
}

func TestClockPlayerLifecycle(t *testing.T) {
	signals := make(chan Signal, 16)
	p := NewClockPlayer()
	defer p.Close()
	p.SetNotify(func(s Signal) { signals <- s })
	p.SetDurationFunc(func(string) float64 { return 0.2 })

	p.Load("m1")
	require.Equal(t, SignalReady, waitSignal(t, signals))
	assert.Equal(t, 0.2, p.Duration())

	p.Play()
	require.Equal(t, SignalPlaying, waitSignal(t, signals))

	require.Equal(t, SignalEnded, waitSignal(t, signals))
	assert.Equal(t, 0.2, p.CurrentTime())
}

func TestClockPlayerPauseFreezesPosition(t *testing.T) {
	signals := make(chan Signal, 16)
	p := NewClockPlayer()
	defer p.Close()
	p.SetNotify(func(s Signal) { signals <- s })

	p.Load("m1")
	waitSignal(t, signals)
	p.Play()
	waitSignal(t, signals)

	p.Pause()
	require.Equal(t, SignalPaused, waitSignal(t, signals))
	frozen := p.CurrentTime()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, frozen, p.CurrentTime())

	p.SeekTo(12)
	assert.Equal(t, 12.0, p.CurrentTime())
}

func waitSignal(t *testing.T, ch <-chan Signal) Signal {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player signal")
		return 0
	}
}
