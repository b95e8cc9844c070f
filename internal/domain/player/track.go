package player

import "strings"

// Artist is a performer credited on a track.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AlbumRef references the album a track belongs to.
type AlbumRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Genre tags a track.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Track is a playable catalog item. An empty Src means the item exists in
// the catalog but cannot currently be streamed.
type Track struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Image    string    `json:"image,omitempty"`
	Src      string    `json:"src"`
	Duration float64   `json:"duration,omitempty"` // seconds, 0 when unknown
	Artists  []Artist  `json:"artist,omitempty"`
	Album    *AlbumRef `json:"album,omitempty"`

	// Catalog metadata carried through unchanged; dates are ISO 8601.
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
	CreateAt    string  `json:"createAt,omitempty"`
	UpdateAt    string  `json:"updateAt,omitempty"`
}

// Playable reports whether the track has a source that can be loaded.
func (t Track) Playable() bool {
	return t.Src != ""
}

// ArtistNames joins the credited artist names for display.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// NormalizeSource turns a track source into an absolute locator.
// Absolute http(s) URLs pass through, anything else is rooted at "/".
func NormalizeSource(src string) string {
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "/"):
		return src
	default:
		return "/" + src
	}
}
