package chunk

// Preferences are the user-facing behavior toggles persisted alongside the
// chunk families. The storage core only carries them; interpreting them is
// the UI's business.
type Preferences struct {
	OpenInNewTab  bool `json:"openInNewTab"`
	ConfirmDelete bool `json:"confirmDelete"`
	ShowFavicons  bool `json:"showFavicons"`
}

// DefaultPreferences returns the out-of-the-box toggles.
func DefaultPreferences() Preferences {
	return Preferences{OpenInNewTab: true, ConfirmDelete: true, ShowFavicons: true}
}

// Theme is the cosmetic theming blob. Carried, never interpreted.
type Theme struct {
	Accent     string `json:"accent"`
	Background string `json:"background"`
	FontFamily string `json:"fontFamily"`
}

// DefaultTheme returns the out-of-the-box theme.
func DefaultTheme() Theme {
	return Theme{Accent: "#4a7dff", Background: "#ffffff", FontFamily: "system-ui"}
}

// Meta is the scalar metadata persisted with every save.
type Meta struct {
	SchemaVersion int         `json:"schemaVersion"`
	Preferences   Preferences `json:"preferences"`
	Theme         Theme       `json:"theme"`
}

// DefaultMeta returns the metadata of a fresh store.
func DefaultMeta() Meta {
	return Meta{
		SchemaVersion: SchemaChunked,
		Preferences:   DefaultPreferences(),
		Theme:         DefaultTheme(),
	}
}
