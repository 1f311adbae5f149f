package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaRef(t *testing.T) {
	cases := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/JGwWNGJdvx8", "JGwWNGJdvx8", true},
		{"https://www.youtube.com/embed/kJQP7kiw5Fk", "kJQP7kiw5Fk", true},
		{"https://www.youtube.com/watch?v=fKopy74weus&t=30s", "fKopy74weus", true},
		{"not a link", "", false},
		{"https://example.com/watch?v=short", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseMediaRef(tc.ref)
		assert.Equal(t, tc.ok, ok, "ref %q", tc.ref)
		assert.Equal(t, tc.want, got, "ref %q", tc.ref)
	}
}

func TestResolveKnownAndUnknown(t *testing.T) {
	r := NewStaticResolver()

	info, err := r.Resolve("https://youtu.be/JRfuAukYTKg")
	require.NoError(t, err)
	assert.Equal(t, "JRfuAukYTKg", info.MediaID)
	assert.Equal(t, "Imagine Dragons - Believer", info.Title)
	assert.Equal(t, "Imagine Dragons", info.Channel)
	assert.NotEmpty(t, info.Thumbnail)

	info, err = r.Resolve("AAAAAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Video (AAAAAAAAAAA)", info.Title)
	assert.Equal(t, "Unknown Artist", info.Channel)

	_, err = r.Resolve("nope")
	assert.Error(t, err)
}

func TestRecommendations(t *testing.T) {
	r := NewStaticResolver()
	recs := r.Recommendations()
	require.Len(t, recs, 5)
	assert.Equal(t, "Ed Sheeran - Shape of You", recs[0].Title)
}
