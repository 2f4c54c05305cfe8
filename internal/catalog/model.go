package catalog

// Track is one playable entry from the upstream catalog.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	PreviewURL  string   `json:"preview_url"`
	Image       string   `json:"image"`
	ExternalURL string   `json:"external_url"`
}

func (t Track) Clone() Track {
	if t.Artists != nil {
		t.Artists = append([]string(nil), t.Artists...)
	}
	return t
}
