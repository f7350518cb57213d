package models

// EntityHeader is a compact reference to a user, org or record: its id and display text.
type EntityHeader struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// IsEmpty reports whether the header references nothing
func (h *EntityHeader) IsEmpty() bool {
	return h == nil || h.ID == ""
}
