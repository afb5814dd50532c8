package meta

import "strconv"

// Display is the view model of the artist/track block rendered on a post.
type Display struct {
	Artist  string      `json:"artist,omitempty"`
	Track   string      `json:"track,omitempty"`
	Album   string      `json:"album,omitempty"`
	Status  Status      `json:"status"`
	Details []DetailRow `json:"details"`
}

// DetailRow is one labelled value under the artist and track names.
type DetailRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// NewDisplay builds the block for the custom meta field of a post. It returns
// nil when there is nothing to show: no artistTrack section, or a record with
// neither artist name nor track title, whatever else is filled in.
func NewDisplay(field string) *Display {
	track := GetArtistTrackData(field)
	if track == nil || !track.HasIdentity() {
		return nil
	}

	d := &Display{
		Artist: track.ArtistName,
		Track:  track.TrackTitle,
		Album:  track.AlbumName,
		Status: ParseStatus(string(track.Status)),
	}
	if track.ISRC != "" {
		d.Details = append(d.Details, DetailRow{Label: "ISRC", Value: track.ISRC})
	}
	if track.PROAffiliation != PROUnset {
		d.Details = append(d.Details, DetailRow{Label: "PRO", Value: string(track.PROAffiliation)})
	}

	registered := "Not Registered"
	if track.SoundExchangeRegistered {
		registered = "Registered"
	}
	d.Details = append(d.Details,
		DetailRow{Label: "SoundExchange", Value: registered},
		DetailRow{Label: "Status", Value: d.Status.Title()},
	)

	if track.AirplayCount > 0 {
		d.Details = append(d.Details, DetailRow{Label: "Airplay", Value: strconv.Itoa(track.AirplayCount)})
	}
	if track.SpinCount > 0 {
		d.Details = append(d.Details, DetailRow{Label: "Spins", Value: strconv.Itoa(track.SpinCount)})
	}
	return d
}
