package meta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Status is where a submitted track sits in the review pipeline.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusLive     Status = "live"
	StatusRejected Status = "rejected"
)

// ParseStatus maps unknown and empty values to StatusPending.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusLive, StatusRejected:
		return Status(s)
	default:
		return StatusPending
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(ParseStatus(string(s))))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*s = StatusPending
		return nil
	}
	*s = ParseStatus(str)
	return nil
}

// Title is the capitalised label shown on the site.
func (s Status) Title() string {
	v := string(ParseStatus(string(s)))
	return strings.ToUpper(v[:1]) + v[1:]
}

// PRO is a performing rights organisation. The empty value means "not chosen".
type PRO string

const (
	PROUnset PRO = ""
	PROASCAP PRO = "ASCAP"
	PROBMI   PRO = "BMI"
	PROSESAC PRO = "SESAC"
	PROGMR   PRO = "GMR"
	PROOther PRO = "Other"
)

func (p PRO) Valid() bool {
	switch p {
	case PROUnset, PROASCAP, PROBMI, PROSESAC, PROGMR, PROOther:
		return true
	}
	return false
}

// ArtistTrack is the artist/track record stored in the artistTrack section.
// ISRC is nominally CC-XXX-YY-NNNNN but is stored as typed.
type ArtistTrack struct {
	ArtistName              string `json:"artistName"`
	TrackTitle              string `json:"trackTitle"`
	AlbumName               string `json:"albumName"`
	TrackFileURL            string `json:"trackFileUrl"`
	TrackFileName           string `json:"trackFileName"`
	ISRC                    string `json:"isrc"`
	PROAffiliation          PRO    `json:"proAffiliation"`
	SoundExchangeRegistered bool   `json:"soundExchangeRegistered"`
	Status                  Status `json:"status"`
	AirplayCount            int    `json:"airplayCount"`
	SpinCount               int    `json:"spinCount"`
	TargetChannel           string `json:"targetChannel"`
	TargetPlaylist          string `json:"targetPlaylist"`
}

// NewArtistTrack returns the all-defaults record a new submission starts from.
func NewArtistTrack() ArtistTrack {
	return ArtistTrack{Status: StatusPending}
}

// HasIdentity reports whether the record names an artist or a track. Records
// without either are treated as absent by display code.
func (t ArtistTrack) HasIdentity() bool {
	return t.ArtistName != "" || t.TrackTitle != ""
}

// Patch returns every attribute of t as a Patch, for a full overwrite through
// UpdateArtistTrackData.
func (t ArtistTrack) Patch() Patch {
	return Patch{
		"artistName":              t.ArtistName,
		"trackTitle":              t.TrackTitle,
		"albumName":               t.AlbumName,
		"trackFileUrl":            t.TrackFileURL,
		"trackFileName":           t.TrackFileName,
		"isrc":                    t.ISRC,
		"proAffiliation":          t.PROAffiliation,
		"soundExchangeRegistered": t.SoundExchangeRegistered,
		"status":                  ParseStatus(string(t.Status)),
		"airplayCount":            nonNegative(t.AirplayCount),
		"spinCount":               nonNegative(t.SpinCount),
		"targetChannel":           t.TargetChannel,
		"targetPlaylist":          t.TargetPlaylist,
	}
}

// artistTrackFromFields decodes attribute by attribute so that one badly typed
// value costs only that value, never the whole record.
func artistTrackFromFields(fields map[string]json.RawMessage) ArtistTrack {
	t := NewArtistTrack()
	t.ArtistName = textOf(fields["artistName"])
	t.TrackTitle = textOf(fields["trackTitle"])
	t.AlbumName = textOf(fields["albumName"])
	t.TrackFileURL = textOf(fields["trackFileUrl"])
	t.TrackFileName = textOf(fields["trackFileName"])
	t.ISRC = textOf(fields["isrc"])
	t.PROAffiliation = PRO(textOf(fields["proAffiliation"]))
	t.SoundExchangeRegistered = boolOf(fields["soundExchangeRegistered"])
	t.Status = ParseStatus(textOf(fields["status"]))
	t.AirplayCount = countOf(fields["airplayCount"])
	t.SpinCount = countOf(fields["spinCount"])
	t.TargetChannel = textOf(fields["targetChannel"])
	t.TargetPlaylist = textOf(fields["targetPlaylist"])
	return t
}

func textOf(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func boolOf(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// countOf accepts JSON numbers and numeric strings; anything else is 0.
// Integers are parsed exactly, fractions are truncated.
func countOf(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	text := strings.TrimSpace(string(raw))
	var s string
	if json.Unmarshal(raw, &s) == nil {
		text = strings.TrimSpace(s)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return nonNegative(int(n))
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt
	}
	return int(f)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
