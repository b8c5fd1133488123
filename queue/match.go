package queue

import "queuebot/models"

// matchField extracts one comparable identity field from a track.
// Empty string means the field is absent.
type matchField func(*models.Track) string

// trackMatchFields is the removal tie-break policy: fields are consulted
// in this priority order, and a field only gets a vote when every earlier
// field was absent on at least one side. The first field present on both
// sides decides.
var trackMatchFields = []matchField{
	func(t *models.Track) string {
		if t.Encoded == nil {
			return ""
		}
		return *t.Encoded
	},
	func(t *models.Track) string { return t.Info.Identifier },
	func(t *models.Track) string { return t.Info.URI },
	func(t *models.Track) string { return t.Info.Title },
	func(t *models.Track) string { return t.Info.ISRC },
	func(t *models.Track) string { return t.Info.ArtworkURL },
}

// tracksMatch reports whether candidate structurally matches query under
// the ordered field policy above.
func tracksMatch(candidate, query *models.Track) bool {
	if candidate == nil || query == nil {
		return false
	}
	for _, field := range trackMatchFields {
		c, q := field(candidate), field(query)
		if c == "" || q == "" {
			continue
		}
		return c == q
	}
	return false
}
