package metadata

import (
	"fmt"
	"regexp"
)

// TrackInfo describes a piece of media by its id. The relay never sees this
// type; resolution happens entirely on the client before a track is queued.
type TrackInfo struct {
	MediaID   string
	Title     string
	Channel   string
	Thumbnail string
	Duration  float64
}

// Resolver turns a user-supplied reference, a raw media id or a share URL,
// into track metadata.
type Resolver interface {
	Resolve(ref string) (TrackInfo, error)
}

var watchURL = regexp.MustCompile(`(?:youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]{11})`)
var rawID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseMediaRef extracts the 11-character media id from a share URL, or
// accepts a bare id as-is. Returns false when nothing usable is found.
func ParseMediaRef(ref string) (string, bool) {
	if rawID.MatchString(ref) {
		return ref, true
	}
	if m := watchURL.FindStringSubmatch(ref); m != nil {
		return m[1], true
	}
	return "", false
}

type catalogEntry struct {
	title    string
	channel  string
	duration float64
}

// StaticResolver serves a small built-in catalog and synthesizes a
// placeholder for anything it does not know. It stands in for a real
// metadata API the same way the demo seed data did.
type StaticResolver struct {
	catalog map[string]catalogEntry
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		catalog: map[string]catalogEntry{
			"dQw4w9WgXcQ": {"Rick Astley - Never Gonna Give You Up", "Rick Astley", 213},
			"JGwWNGJdvx8": {"Ed Sheeran - Shape of You", "Ed Sheeran", 234},
			"kJQP7kiw5Fk": {"Luis Fonsi - Despacito ft. Daddy Yankee", "Luis Fonsi", 282},
			"RgKAFK5djSk": {"Wiz Khalifa - See You Again ft. Charlie Puth", "Wiz Khalifa", 230},
			"fKopy74weus": {"Imagine Dragons - Thunder", "Imagine Dragons", 187},
			"JRfuAukYTKg": {"Imagine Dragons - Believer", "Imagine Dragons", 204},
		},
	}
}

func (r *StaticResolver) Resolve(ref string) (TrackInfo, error) {
	id, ok := ParseMediaRef(ref)
	if !ok {
		return TrackInfo{}, fmt.Errorf("metadata: %q is not a media id or share link", ref)
	}
	info := TrackInfo{
		MediaID:   id,
		Thumbnail: fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", id),
	}
	if entry, ok := r.catalog[id]; ok {
		info.Title = entry.title
		info.Channel = entry.channel
		info.Duration = entry.duration
	} else {
		info.Title = fmt.Sprintf("Video (%s)", id)
		info.Channel = "Unknown Artist"
		info.Duration = 240
	}
	return info, nil
}

// Recommendations is the built-in suggestion list shown in a room before any
// track history exists.
func (r *StaticResolver) Recommendations() []TrackInfo {
	ids := []string{"JGwWNGJdvx8", "kJQP7kiw5Fk", "RgKAFK5djSk", "fKopy74weus", "JRfuAukYTKg"}
	out := make([]TrackInfo, 0, len(ids))
	for _, id := range ids {
		info, err := r.Resolve(id)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out
}

// DurationOf reports the catalog duration for a media id, for players that
// simulate playback without decoding.
func (r *StaticResolver) DurationOf(mediaID string) float64 {
	if entry, ok := r.catalog[mediaID]; ok {
		return entry.duration
	}
	return 240
}
