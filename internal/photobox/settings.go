package photobox

// SettingsConfigName names the stored viewer settings; it is also the suffix of
// the cache tag attached to everything rendered with them.
const SettingsConfigName = "photobox.settings"

// SettingsCacheTag is invalidated whenever the stored settings change.
const SettingsCacheTag = "config:" + SettingsConfigName

// GallerySettings is applied to every viewer instance on a page.
type GallerySettings struct {
	History  bool `json:"history" yaml:"history"`
	Loop     bool `json:"loop" yaml:"loop"`
	Thumbs   bool `json:"thumbs" yaml:"thumbs"`
	Zoomable bool `json:"zoomable" yaml:"zoomable"`
}

// DefaultSettings mirrors the viewer library's own defaults.
func DefaultSettings() GallerySettings {
	return GallerySettings{
		History:  false,
		Loop:     true,
		Thumbs:   true,
		Zoomable: true,
	}
}

// SettingsField describes one checkbox of the settings form.
type SettingsField struct {
	Name        string
	Title       string
	Description string
	Checked     bool
}

// Fields lists the settings in form order.
func (s GallerySettings) Fields() []SettingsField {
	return []SettingsField{
		{"history", "Browser history", "Enable/disable HTML5 history using hash urls.", s.History},
		{"loop", "Loop", "Loop back to last image before the first one and to the first image after last one.", s.Loop},
		{"thumbs", "Thumbs", "Show thumbnail images in the gallery at the bottom.", s.Thumbs},
		{"zoomable", "Zoom", "Enable/Disable mousewheel zooming over images.", s.Zoomable},
	}
}
