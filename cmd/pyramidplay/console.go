package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

var errUsage = errors.New("usage")

func newConsoleCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Control the player from an interactive prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			closeLogs, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLogs()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "pyramidplay> ",
				HistoryFile:     filepath.Join(cfg.DataDir, ".console_history"),
				AutoComplete:    consoleCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			return runConsole(ctx, &console{app: a, out: rl.Stdout()}, rl)
		},
	}
}

func consoleCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("list"),
		readline.PcItem("play"),
		readline.PcItem("pause"),
		readline.PcItem("resume"),
		readline.PcItem("toggle"),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("jump"),
		readline.PcItem("seek"),
		readline.PcItem("vol"),
		readline.PcItem("mute"),
		readline.PcItem("shuffle"),
		readline.PcItem("repeat"),
		readline.PcItem("fav"),
		readline.PcItem("favs"),
		readline.PcItem("recents"),
		readline.PcItem("playlists"),
		readline.PcItem("newpl"),
		readline.PcItem("addpl"),
		readline.PcItem("status"),
		readline.PcItem("quota"),
		readline.PcItem("quit"),
	)
}

func runConsole(ctx context.Context, c *console, rl *readline.Instance) error {
	fmt.Fprintln(c.out, "Type 'help' for commands.")
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		quit, err := c.exec(ctx, line)
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// console runs one-line commands against the player and library.
type console struct {
	app *app
	out io.Writer
}

const consoleHelp = `Commands:
  list [query]           list catalog tracks
  play <id>              play a catalog track in catalog context
  pause | resume | toggle
  next | prev | jump <index>
  seek <seconds>         move within the current track
  vol <0-100>            set volume (unmutes)
  mute | shuffle | repeat
  fav [id]               toggle favorite (current track by default)
  favs | recents | playlists
  newpl [name]           create a playlist, seeded with the current track
  addpl <playlist> [id]  add a track to a playlist
  status | quota
  quit`

func (c *console) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	p := c.app.player

	switch cmd {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "quit", "exit":
		return true, nil
	case "list", "ls":
		c.printTracks(c.app.catalog.Search(strings.Join(args, " ")))
	case "play":
		track, err := c.trackArg(args, false)
		if err != nil {
			return false, err
		}
		return false, p.Play(ctx, track, c.app.catalog.Tracks())
	case "pause":
		p.Pause()
	case "resume":
		return false, p.Resume(ctx)
	case "toggle":
		return false, p.TogglePlay(ctx)
	case "next":
		p.Next()
	case "prev":
		p.Previous()
	case "jump":
		n, err := intArg(args)
		if err != nil {
			return false, err
		}
		p.JumpTo(n)
	case "seek":
		secs, err := floatArg(args)
		if err != nil {
			return false, err
		}
		p.Seek(secs)
	case "vol":
		percent, err := floatArg(args)
		if err != nil {
			return false, err
		}
		p.SetVolume(percent / 100)
	case "mute":
		p.ToggleMute()
	case "shuffle":
		p.ToggleShuffle()
	case "repeat":
		p.ToggleRepeat()
	case "fav":
		track, err := c.trackArg(args, true)
		if err != nil {
			return false, err
		}
		if c.app.library.ToggleFavorite(track) {
			fmt.Fprintf(c.out, "added %q to favorites\n", track.Title)
		} else {
			fmt.Fprintf(c.out, "removed %q from favorites\n", track.Title)
		}
	case "favs":
		c.printTracks(c.app.library.Favorites())
	case "recents":
		c.printTracks(c.app.library.Recents())
	case "playlists":
		for _, pl := range c.app.library.Playlists() {
			fmt.Fprintf(c.out, "%s  %s (%d tracks)\n", pl.ID, pl.Name, len(pl.Tracks))
		}
	case "newpl":
		pl := c.app.library.CreatePlaylist(strings.Join(args, " "), p.State().CurrentTrack)
		fmt.Fprintf(c.out, "created %s  %s\n", pl.ID, pl.Name)
	case "addpl":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: addpl <playlist> [id]", errUsage)
		}
		track, err := c.trackArg(args[1:], true)
		if err != nil {
			return false, err
		}
		return false, c.app.library.AddToPlaylist(track, args[0])
	case "status":
		c.printStatus(p.State())
	case "quota":
		if c.app.gate == nil {
			fmt.Fprintln(c.out, "unlimited")
			return false, nil
		}
		remaining, err := c.app.gate.Remaining(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "%d free plays left\n", remaining)
	default:
		return false, fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return false, nil
}

// trackArg resolves a catalog ID. With orCurrent, no argument means the
// loaded track.
func (c *console) trackArg(args []string, orCurrent bool) (player.Track, error) {
	if len(args) == 0 {
		if current := c.app.player.State().CurrentTrack; orCurrent && current != nil {
			return *current, nil
		}
		return player.Track{}, fmt.Errorf("%w: track id required", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return player.Track{}, fmt.Errorf("%w: invalid track id %q", errUsage, args[0])
	}
	track, ok := c.app.catalog.Find(id)
	if !ok {
		return player.Track{}, fmt.Errorf("track %d not in catalog", id)
	}
	return track, nil
}

func (c *console) printTracks(tracks []player.Track) {
	if len(tracks) == 0 {
		fmt.Fprintln(c.out, "(none)")
		return
	}
	for _, t := range tracks {
		line := fmt.Sprintf("%6d  %s", t.ID, t.Title)
		if artists := t.ArtistNames(); artists != "" {
			line += " - " + artists
		}
		if !t.Playable() {
			line += " [unavailable]"
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *console) printStatus(s player.State) {
	status := "paused"
	if s.IsPlaying {
		status = "playing"
	}
	title := "(nothing loaded)"
	if s.CurrentTrack != nil {
		title = s.CurrentTrack.Title
	}
	fmt.Fprintf(c.out, "%s: %s [%d/%d]\n", status, title, s.CurrentIndex+1, len(s.Playlist))
	fmt.Fprintf(c.out, "time %s / %s  volume %d%%", clock(s.CurrentTime), clock(s.Duration), int(math.Round(s.Volume*100)))
	if s.Muted {
		fmt.Fprint(c.out, " (muted)")
	}
	fmt.Fprintf(c.out, "  shuffle %v  repeat %s\n", s.Shuffle, s.Repeat)
}

func clock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: number required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", errUsage, args[0])
	}
	return n, nil
}

func floatArg(args []string) (float64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: number required", errUsage)
	}
	f, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", errUsage, args[0])
	}
	return f, nil
}
