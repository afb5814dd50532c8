// Package meta packs structured post metadata into the single WordPress text
// field that otherwise carries a plain video URL.
//
// The field holds a JSON object whose keys are independent sections. Only the
// "artistTrack" section is understood today; every other section is carried
// through untouched so that newer writers never lose data written by older ones.
package meta

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ArtistTrackSection is the envelope key holding the artist/track record.
const ArtistTrackSection = "artistTrack"

// Envelope is the decoded custom meta field: an open map of named sections.
type Envelope map[string]json.RawMessage

// Patch is a shallow update of a section, keyed by JSON attribute name.
type Patch map[string]any

// Encode serializes the envelope. Keys come out sorted, so equal envelopes
// always produce identical text.
func Encode(env Envelope) string {
	if env == nil {
		env = Envelope{}
	}
	out, err := json.Marshal(env)
	if err != nil {
		// Only reachable when a section holds invalid raw JSON.
		return "{}"
	}
	return string(out)
}

// Decode parses the field. It returns nil when the text is empty, is not JSON
// or is JSON but not an object.
func Decode(text string) Envelope {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed[0] != '{' {
		return nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil || env == nil {
		return nil
	}
	return env
}

// IsCustomMetaField reports whether text is an encoded envelope carrying an
// artistTrack section, as opposed to a plain video URL.
func IsCustomMetaField(text string) bool {
	env := Decode(text)
	if env == nil {
		return false
	}
	_, ok := env[ArtistTrackSection]
	return ok
}

// GetVideoURL returns the field as a playable URL, or false when it is empty
// or holds custom meta.
func GetVideoURL(text string) (string, bool) {
	if text == "" || IsCustomMetaField(text) {
		return "", false
	}
	return text, true
}

// GetArtistTrackData decodes the artistTrack section of text, or returns nil.
func GetArtistTrackData(text string) *ArtistTrack {
	env := Decode(text)
	if env == nil {
		return nil
	}
	return env.ArtistTrack()
}

// ArtistTrack decodes the artistTrack section. A section that is missing or is
// not a JSON object yields nil.
func (e Envelope) ArtistTrack() *ArtistTrack {
	raw, ok := e[ArtistTrackSection]
	if !ok {
		return nil
	}
	fields, ok := objectOf(raw)
	if !ok {
		return nil
	}
	track := artistTrackFromFields(fields)
	return &track
}

// SetArtistTrack replaces the artistTrack section with the full record.
func (e Envelope) SetArtistTrack(track ArtistTrack) {
	raw, _ := json.Marshal(track)
	e[ArtistTrackSection] = raw
}

// UpdateArtistTrackData merges patch into the artistTrack section of text and
// re-encodes it. Undecodable text starts from an empty envelope. New values
// override old ones per key; nested values are replaced, not merged. Other
// sections, and unknown keys inside artistTrack, are preserved.
func UpdateArtistTrackData(text string, patch Patch) string {
	env := Decode(text)
	if env == nil {
		env = Envelope{}
	}

	section, ok := objectOf(env[ArtistTrackSection])
	if !ok {
		section = map[string]json.RawMessage{}
	}
	for key, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			continue
		}
		section[key] = raw
	}

	merged, err := json.Marshal(section)
	if err != nil {
		return Encode(env)
	}
	env[ArtistTrackSection] = merged
	return Encode(env)
}

func objectOf(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}
