package speaker

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// output is where a playback sends its samples. The speaker package
// satisfies it in production; Lock guards every streamer in the chain.
type output interface {
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
}

// playback owns one decoded track and the streamer chain feeding output.
//
// Once the track drains, the output drops the chain and the resampler
// stays at its end, so seeking or resuming afterwards builds a fresh
// chain around the same decoder.
type playback struct {
	out      output
	rate     beep.SampleRate
	streamer beep.StreamSeekCloser
	format   beep.Format
	onEnd    func()
	level    float64

	// guarded by out.Lock
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	drained bool
}

// newPlayback queues streamer paused on out. onEnd runs on the output's
// goroutine each time the track plays to its end.
func newPlayback(out output, streamer beep.StreamSeekCloser, format beep.Format, rate beep.SampleRate, level float64, onEnd func()) *playback {
	p := &playback{
		out:      out,
		rate:     rate,
		streamer: streamer,
		format:   format,
		onEnd:    onEnd,
		level:    level,
	}
	p.arm(true)
	return p
}

// arm pushes a new chain to the output. Must not hold out.Lock.
func (p *playback) arm(paused bool) {
	resampled := beep.Resample(4, p.format.SampleRate, p.rate, p.streamer)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: paused}
	vol, silent := Gain(p.level)
	volume := &effects.Volume{Streamer: ctrl, Base: 2, Volume: vol, Silent: silent}

	p.out.Lock()
	p.ctrl, p.volume, p.drained = ctrl, volume, false
	p.out.Unlock()

	p.out.Play(beep.Seq(volume, beep.Callback(func() {
		// output holds its lock while streaming
		if p.volume == volume {
			p.drained = true
		}
		p.onEnd()
	})))
}

// rearm restarts a drained chain, keeping the pause state and gain. A
// decoder left at the end starts over, like a media element played after
// it ended.
func (p *playback) rearm() error {
	p.out.Lock()
	drained := p.drained
	paused := p.ctrl.Paused
	var err error
	if drained && p.streamer.Position() >= p.streamer.Len() {
		err = p.streamer.Seek(0)
	}
	p.out.Unlock()

	if err != nil {
		return err
	}
	if drained {
		p.arm(paused)
	}
	return nil
}

func (p *playback) play() error {
	p.out.Lock()
	p.ctrl.Paused = false
	p.out.Unlock()
	return p.rearm()
}

func (p *playback) pause() {
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
}

func (p *playback) setLevel(level float64) {
	p.level = level
	vol, silent := Gain(level)
	p.out.Lock()
	p.volume.Volume = vol
	p.volume.Silent = silent
	p.out.Unlock()
}

// seek clamps seconds to the track and moves the decoder there.
func (p *playback) seek(seconds float64) error {
	n := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	n = max(0, min(n, p.streamer.Len()-1))

	p.out.Lock()
	err := p.streamer.Seek(n)
	p.out.Unlock()
	if err != nil {
		return err
	}
	return p.rearm()
}

// position reports the decoder position while audibly playing.
func (p *playback) position() (float64, bool) {
	p.out.Lock()
	playing := !p.ctrl.Paused && !p.drained
	pos := p.streamer.Position()
	p.out.Unlock()

	if !playing {
		return 0, false
	}
	return p.format.SampleRate.D(pos).Seconds(), true
}

func (p *playback) duration() float64 {
	return p.format.SampleRate.D(p.streamer.Len()).Seconds()
}

// close detaches the chain from the output and releases the decoder.
func (p *playback) close() {
	p.out.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	p.out.Unlock()
	p.streamer.Close()
}
