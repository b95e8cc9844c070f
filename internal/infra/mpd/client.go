// Package mpd drives a Music Player Daemon as the player's output device.
package mpd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by Ping before a connection exists.
var ErrNotConnected = errors.New("not connected to MPD")

// Client wraps the gompd client with reconnection logic.
type Client struct {
	mu      sync.RWMutex
	client  *mpd.Client
	watcher *mpd.Watcher
	// watchDone releases the current watcher's forwarding goroutine
	watchDone chan struct{}
	host      string
	port      int
	password  string
}

var _ Controller = (*Client)(nil)

// NewClient creates a client for the MPD server at host:port.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect establishes the command connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

// connectLocked dials MPD (must hold lock).
func (c *Client) connectLocked() error {
	log.Info().Str("addr", c.addr()).Msg("Connecting to MPD")

	client, err := mpd.Dial("tcp", c.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}
	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected pings the connection and redials if it dropped.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return c.connectLocked()
	}
	if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		c.client.Close()
		c.client = nil
		return c.connectLocked()
	}
	return nil
}

// do runs fn against a live connection.
func (c *Client) do(fn func(*mpd.Client) error) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.client)
}

// Close closes the watcher and the command connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopWatcherLocked()
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Ping checks the existing connection without reconnecting.
func (c *Client) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping()
}

// Status returns the MPD status attributes.
func (c *Client) Status() (map[string]string, error) {
	var attrs mpd.Attrs
	err := c.do(func(m *mpd.Client) (err error) {
		attrs, err = m.Status()
		return err
	})
	return attrs, err
}

// Play starts the queue entry at pos, or resumes when pos is -1.
func (c *Client) Play(pos int) error {
	if pos < 0 {
		pos = -1
	}
	return c.do(func(m *mpd.Client) error { return m.Play(pos) })
}

// Pause sets the pause state.
func (c *Client) Pause(pause bool) error {
	return c.do(func(m *mpd.Client) error { return m.Pause(pause) })
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.do(func(m *mpd.Client) error { return m.Stop() })
}

// SeekCur seeks within the current song to an absolute position in seconds.
func (c *Client) SeekCur(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	return c.do(func(m *mpd.Client) error { return m.SeekCur(d, false) })
}

// SetVolume sets the mixer volume (0-100).
func (c *Client) SetVolume(vol int) error {
	vol = max(0, min(vol, 100))
	return c.do(func(m *mpd.Client) error { return m.SetVolume(vol) })
}

// SetRandom sets MPD's own random mode.
func (c *Client) SetRandom(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Random(on) })
}

// SetRepeat sets MPD's own repeat mode.
func (c *Client) SetRepeat(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Repeat(on) })
}

// SetSingle sets MPD's single mode.
func (c *Client) SetSingle(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Single(on) })
}

// SetConsume sets MPD's consume mode.
func (c *Client) SetConsume(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Consume(on) })
}

// Clear empties the queue.
func (c *Client) Clear() error {
	return c.do(func(m *mpd.Client) error { return m.Clear() })
}

// Add appends a URI to the queue.
func (c *Client) Add(uri string) error {
	return c.do(func(m *mpd.Client) error { return m.Add(uri) })
}

// Watch starts an idle watcher on a separate connection.
// The returned channel receives subsystem names and closes with the watcher.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	watcher, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.stopWatcherLocked()
	c.watcher = watcher
	c.watchDone = done
	c.mu.Unlock()

	return forwardEvents(watcher.Event, watcher.Error, done), nil
}

// stopWatcherLocked closes the idle watcher (must hold lock).
func (c *Client) stopWatcherLocked() {
	if c.watchDone != nil {
		close(c.watchDone)
		c.watchDone = nil
	}
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}

// forwardEvents relays watcher events until the watcher closes. Once done is
// closed events are discarded instead, so a consumer that stopped reading
// never blocks the watcher.
func forwardEvents(events <-chan string, errs <-chan error, done <-chan struct{}) <-chan string {
	ch := make(chan string, 10)
	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- subsystem:
				case <-done:
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("MPD watcher error")
				select {
				case <-time.After(time.Second):
				case <-done:
				}
			}
		}
	}()
	return ch
}
