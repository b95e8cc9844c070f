package mpd

import "github.com/edumarques81/pyramidplay/internal/domain/player"

// Observe exposes status sampling to tests.
func (e *Element) Observe(status map[string]string) []player.MediaEvent {
	return e.observe(status)
}

// ForwardEvents exposes the watcher relay to tests.
func ForwardEvents(events <-chan string, errs <-chan error, done <-chan struct{}) <-chan string {
	return forwardEvents(events, errs, done)
}
