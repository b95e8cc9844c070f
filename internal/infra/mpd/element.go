package mpd

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

// DefaultPollInterval is how often the playback position is sampled.
const DefaultPollInterval = 500 * time.Millisecond

// Controller is the subset of Client the element needs.
type Controller interface {
	Status() (map[string]string, error)
	Play(pos int) error
	Pause(pause bool) error
	SeekCur(seconds float64) error
	SetVolume(vol int) error
	SetRandom(on bool) error
	SetRepeat(on bool) error
	SetSingle(on bool) error
	SetConsume(on bool) error
	Clear() error
	Add(uri string) error
	Watch(subsystems ...string) (<-chan string, error)
}

// Element plays one track at a time through MPD. The queue only ever holds
// the loaded track; sequencing is left to the player store.
type Element struct {
	ctl          Controller
	events       chan player.MediaEvent
	pollInterval time.Duration

	mu        sync.Mutex
	loaded    bool
	lastState string
	duration  float64
	// stopping is set while a stop we caused (clearing the queue) is pending
	stopping bool
}

// NewElement creates an element over ctl.
func NewElement(ctl Controller) *Element {
	return &Element{
		ctl:          ctl,
		events:       make(chan player.MediaEvent, 32),
		pollInterval: DefaultPollInterval,
	}
}

var _ player.MediaElement = (*Element)(nil)

// SetPollInterval changes the position sampling period. Call before Run.
func (e *Element) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.pollInterval = d
	}
}

// Prepare disables MPD's own sequencing modes.
func (e *Element) Prepare() error {
	steps := []struct {
		name string
		fn   func(bool) error
	}{
		{"repeat", e.ctl.SetRepeat},
		{"random", e.ctl.SetRandom},
		{"single", e.ctl.SetSingle},
		{"consume", e.ctl.SetConsume},
	}
	for _, s := range steps {
		if err := s.fn(false); err != nil {
			return &CommandError{Op: s.name, Err: err}
		}
	}
	return nil
}

// SetSource replaces the queue with src.
func (e *Element) SetSource(src string) error {
	e.mu.Lock()
	e.stopping = true
	e.loaded = false
	e.duration = 0
	e.mu.Unlock()

	if err := e.ctl.Clear(); err != nil {
		return &CommandError{Op: "clear", Err: err}
	}
	uri := URIFor(src)
	if uri == "" {
		return nil
	}
	if err := e.ctl.Add(uri); err != nil {
		return &CommandError{Op: "add", Err: err}
	}

	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()
	log.Debug().Str("uri", uri).Msg("MPD source set")
	return nil
}

// Play starts the loaded track or resumes it when paused.
func (e *Element) Play() error {
	status, err := e.ctl.Status()
	if err != nil {
		return &CommandError{Op: "status", Err: err}
	}

	switch status["state"] {
	case "play":
		return nil
	case "pause":
		err = e.ctl.Pause(false)
	default:
		err = e.ctl.Play(0)
	}
	if err != nil {
		return &CommandError{Op: "play", Err: err}
	}

	e.mu.Lock()
	e.stopping = false
	e.mu.Unlock()
	return nil
}

// Pause pauses playback.
func (e *Element) Pause() error {
	if err := e.ctl.Pause(true); err != nil {
		return &CommandError{Op: "pause", Err: err}
	}
	return nil
}

// SetVolume maps level (0-1) onto MPD's 0-100 mixer.
func (e *Element) SetVolume(level float64) error {
	if err := e.ctl.SetVolume(VolumePercent(level)); err != nil {
		return &CommandError{Op: "setvol", Err: err}
	}
	return nil
}

// Seek moves to seconds within the loaded track.
func (e *Element) Seek(seconds float64) error {
	status, err := e.ctl.Status()
	if err != nil {
		return &CommandError{Op: "status", Err: err}
	}

	// MPD cannot seek a stopped song. Play starts from the top anyway, so
	// only a later position needs the song started and held paused.
	if status["state"] == "stop" {
		if seconds <= 0 {
			return nil
		}
		if err := e.ctl.Play(0); err != nil {
			return &CommandError{Op: "play", Err: err}
		}
		if err := e.ctl.Pause(true); err != nil {
			return &CommandError{Op: "pause", Err: err}
		}
	}

	if err := e.ctl.SeekCur(seconds); err != nil {
		return &CommandError{Op: "seekcur", Err: err}
	}
	return nil
}

// Events returns the element's event stream.
func (e *Element) Events() <-chan player.MediaEvent {
	return e.events
}

// Run samples MPD on every player/mixer change and on a ticker until ctx is done.
func (e *Element) Run(ctx context.Context) {
	changes, err := e.ctl.Watch("player", "mixer")
	if err != nil {
		log.Warn().Err(err).Msg("MPD watcher unavailable, polling only")
		changes = nil
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case subsystem, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			log.Debug().Str("subsystem", subsystem).Msg("MPD change")
			e.poll(ctx)
		case <-ticker.C:
			e.poll(ctx)
		}
	}
}

func (e *Element) poll(ctx context.Context) {
	status, err := e.ctl.Status()
	if err != nil {
		log.Debug().Err(err).Msg("MPD status failed")
		return
	}
	for _, ev := range e.observe(status) {
		select {
		case e.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// observe turns one status sample into element events.
func (e *Element) observe(status map[string]string) []player.MediaEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []player.MediaEvent
	state := status["state"]

	if d, ok := parseDuration(status); ok && d != e.duration {
		e.duration = d
		out = append(out, player.DurationChange{Duration: d})
	}

	switch state {
	case "play":
		e.stopping = false
		if elapsed, ok := parseSeconds(status["elapsed"]); ok {
			out = append(out, player.TimeUpdate{Position: elapsed})
		}
	case "stop":
		if e.lastState == "play" && !e.stopping && e.loaded {
			out = append(out, player.Ended{})
		}
	}

	e.lastState = state
	return out
}

// URIFor maps a normalized track source onto an MPD URI. URLs are passed
// through; rooted paths become relative to the MPD music directory.
func URIFor(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return strings.TrimLeft(src, "/")
}

// VolumePercent converts a 0-1 level into MPD's integer percent.
func VolumePercent(level float64) int {
	if math.IsNaN(level) {
		return 0
	}
	return int(math.Round(max(0, min(level, 1)) * 100))
}

func parseDuration(status map[string]string) (float64, bool) {
	if d, ok := parseSeconds(status["duration"]); ok {
		return d, true
	}
	// older servers only report "elapsed:total"
	if _, total, found := strings.Cut(status["time"], ":"); found {
		return parseSeconds(total)
	}
	return 0, false
}

func parseSeconds(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
