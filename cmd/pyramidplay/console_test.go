package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

func newTestConsole(t *testing.T, opts ...appOption) (*console, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &console{app: newTestApp(t, opts...), out: &out}, &out
}

func run(t *testing.T, c *console, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := c.exec(context.Background(), line); err != nil {
			t.Fatalf("%q failed: %v", line, err)
		}
	}
}

func TestConsolePlaybackCommands(t *testing.T) {
	c, _ := newTestConsole(t)

	run(t, c, "play 2")
	state := c.app.player.State()
	if state.CurrentTrack == nil || state.CurrentTrack.ID != 2 || state.CurrentIndex != 1 {
		t.Fatalf("expected track 2 at index 1, got %+v", state)
	}
	if len(state.Playlist) != len(testTracks) {
		t.Errorf("catalog should be the play context, got %d tracks", len(state.Playlist))
	}

	steps := []struct {
		line  string
		check func(player.State) bool
	}{
		{"pause", func(s player.State) bool { return !s.IsPlaying }},
		{"resume", func(s player.State) bool { return s.IsPlaying }},
		{"toggle", func(s player.State) bool { return !s.IsPlaying }},
		{"prev", func(s player.State) bool { return s.CurrentIndex == 0 }},
		{"next", func(s player.State) bool { return s.CurrentIndex == 1 }},
		{"jump 0", func(s player.State) bool { return s.CurrentIndex == 0 }},
		{"seek 30", func(s player.State) bool { return s.CurrentTime == 30 }},
		{"vol 40", func(s player.State) bool { return s.Volume == 0.4 && !s.Muted }},
		{"mute", func(s player.State) bool { return s.Muted }},
		{"shuffle", func(s player.State) bool { return s.Shuffle }},
		{"repeat", func(s player.State) bool { return s.Repeat == player.RepeatAll }},
		{"  REPEAT  ", func(s player.State) bool { return s.Repeat == player.RepeatOne }},
	}
	for _, step := range steps {
		run(t, c, step.line)
		if !step.check(c.app.player.State()) {
			t.Fatalf("unexpected state after %q: %+v", step.line, c.app.player.State())
		}
	}
}

func TestConsoleNextSkipsUnplayable(t *testing.T) {
	c, _ := newTestConsole(t)

	run(t, c, "play 2", "next")
	if got := c.app.player.State().CurrentIndex; got != 1 {
		t.Errorf("next at the last playable track should stay, got index %d", got)
	}
}

func TestConsoleLibraryCommands(t *testing.T) {
	c, out := newTestConsole(t)

	run(t, c, "play 1", "fav")
	if !c.app.library.IsFavorite(1) {
		t.Fatal("current track should be a favorite")
	}
	if !strings.Contains(out.String(), `added "So What" to favorites`) {
		t.Errorf("unexpected output %q", out.String())
	}

	run(t, c, "fav 1")
	if c.app.library.IsFavorite(1) {
		t.Error("second toggle should remove the favorite")
	}

	run(t, c, "newpl Road trip")
	lists := c.app.library.Playlists()
	if len(lists) != 1 || lists[0].Name != "Road trip" || len(lists[0].Tracks) != 1 {
		t.Fatalf("unexpected playlists %+v", lists)
	}

	run(t, c, "addpl "+lists[0].ID+" 2")
	pl, _ := c.app.library.Playlist(lists[0].ID)
	if len(pl.Tracks) != 2 || pl.Tracks[0].ID != 2 {
		t.Errorf("track 2 should be first, got %+v", pl.Tracks)
	}

	out.Reset()
	run(t, c, "recents")
	if !strings.Contains(out.String(), "So What") {
		t.Errorf("recents should list the played track, got %q", out.String())
	}
}

func TestConsoleListAndStatus(t *testing.T) {
	c, out := newTestConsole(t)

	run(t, c, "list")
	if !strings.Contains(out.String(), "Lost Session - Unknown [unavailable]") {
		t.Errorf("unexpected listing %q", out.String())
	}

	out.Reset()
	run(t, c, "list giant")
	if strings.Count(strings.TrimSpace(out.String()), "\n") != 0 || !strings.Contains(out.String(), "Giant Steps") {
		t.Errorf("expected one search hit, got %q", out.String())
	}

	out.Reset()
	run(t, c, "status")
	if !strings.Contains(out.String(), "paused: (nothing loaded) [0/0]") {
		t.Errorf("unexpected status %q", out.String())
	}

	out.Reset()
	run(t, c, "play 1", "seek 75", "status")
	if !strings.Contains(out.String(), "playing: So What [1/3]") || !strings.Contains(out.String(), "time 1:15") {
		t.Errorf("unexpected status %q", out.String())
	}
}

func TestConsoleQuota(t *testing.T) {
	c, out := newTestConsole(t, withGate(1))

	run(t, c, "quota")
	if !strings.Contains(out.String(), "1 free plays left") {
		t.Errorf("unexpected quota output %q", out.String())
	}

	run(t, c, "play 1")
	_, err := c.exec(context.Background(), "play 2")
	if !errors.Is(err, player.ErrPlaybackDenied) {
		t.Errorf("expected ErrPlaybackDenied, got %v", err)
	}
}

func TestConsoleErrors(t *testing.T) {
	c, _ := newTestConsole(t)

	tests := []struct {
		line      string
		wantUsage bool
	}{
		{"play", true},
		{"play abc", true},
		{"play 42", false},
		{"seek", true},
		{"vol loud", true},
		{"jump x", true},
		{"addpl", true},
		{"fav", true},
		{"dance", false},
	}

	for _, tt := range tests {
		_, err := c.exec(context.Background(), tt.line)
		if err == nil {
			t.Errorf("%q: expected an error", tt.line)
			continue
		}
		if got := errors.Is(err, errUsage); got != tt.wantUsage {
			t.Errorf("%q: usage error = %v, want %v (%v)", tt.line, got, tt.wantUsage, err)
		}
	}
}

func TestConsoleQuit(t *testing.T) {
	c, _ := newTestConsole(t)

	for _, line := range []string{"quit", "exit"} {
		quit, err := c.exec(context.Background(), line)
		if err != nil || !quit {
			t.Errorf("%q: quit=%v err=%v", line, quit, err)
		}
	}
	if quit, _ := c.exec(context.Background(), "   "); quit {
		t.Error("blank lines should not quit")
	}
}

func TestClock(t *testing.T) {
	tests := map[float64]string{0: "0:00", 59.9: "0:59", 75: "1:15", 3600: "60:00"}
	for secs, want := range tests {
		if got := clock(secs); got != want {
			t.Errorf("clock(%v) = %q, want %q", secs, got, want)
		}
	}
}
