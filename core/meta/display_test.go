package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisplay_AbsentIdentity(t *testing.T) {
	field := UpdateArtistTrackData("", Patch{
		"artistName": "",
		"trackTitle": "",
		"isrc":       "US-ABC-12-34567",
	})

	assert.Nil(t, NewDisplay(field))
	assert.Nil(t, NewDisplay(""))
	assert.Nil(t, NewDisplay("https://example.com/video.mp4"))
}

func TestNewDisplay_Rows(t *testing.T) {
	env := Envelope{}
	env.SetArtistTrack(sampleTrack())

	d := NewDisplay(Encode(env))
	require.NotNil(t, d)

	assert.Equal(t, "Nina Vale", d.Artist)
	assert.Equal(t, "Lowlight", d.Track)
	assert.Equal(t, "Harbour", d.Album)
	assert.Equal(t, []DetailRow{
		{Label: "ISRC", Value: "US-ABC-12-34567"},
		{Label: "PRO", Value: "BMI"},
		{Label: "SoundExchange", Value: "Registered"},
		{Label: "Status", Value: "Live"},
		{Label: "Airplay", Value: "12"},
		{Label: "Spins", Value: "340"},
	}, d.Details)
}

func TestNewDisplay_TrackTitleAloneIsEnough(t *testing.T) {
	d := NewDisplay(`{"artistTrack":{"trackTitle":"Only Title"}}`)
	require.NotNil(t, d)

	assert.Equal(t, []DetailRow{
		{Label: "SoundExchange", Value: "Not Registered"},
		{Label: "Status", Value: "Pending"},
	}, d.Details)
}
