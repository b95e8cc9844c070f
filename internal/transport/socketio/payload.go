package socketio

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edumarques81/pyramidplay/internal/domain/player"
)

var (
	errMissingPayload = errors.New("missing payload")
	errBadPayload     = errors.New("malformed payload")
	errUnknownTrack   = errors.New("unknown track")
)

type playPayload struct {
	Track    *player.Track  `json:"track"`
	TrackID  int64          `json:"trackId"`
	Playlist []player.Track `json:"playlist"`
}

type playlistPayload struct {
	Playlist []player.Track `json:"playlist"`
}

type indexPayload struct {
	Index *int `json:"index"`
}

type positionPayload struct {
	Position float64 `json:"position"`
}

type trackPayload struct {
	Track *player.Track `json:"track"`
}

type createPlaylistPayload struct {
	Name  string        `json:"name"`
	Track *player.Track `json:"track"`
}

type addToPlaylistPayload struct {
	PlaylistID string        `json:"playlistId"`
	Track      *player.Track `json:"track"`
}

type searchPayload struct {
	Query string `json:"query"`
}

type errorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// decodeArg converts the first event argument into dst. Socket.io hands
// payloads over as generic maps, so they round-trip through JSON.
func decodeArg(args []any, dst any) error {
	if len(args) == 0 || args[0] == nil {
		return errMissingPayload
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	return nil
}

// numberArg accepts either a bare number or {"value": number}.
func numberArg(args []any) (float64, error) {
	if len(args) == 0 || args[0] == nil {
		return 0, errMissingPayload
	}
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", errBadPayload, err)
		}
		return f, nil
	case map[string]interface{}:
		return numberArg([]any{v["value"]})
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", errBadPayload, args[0])
	}
}
