package photobox

// ImageStyle is a named derivative of the original images, stored under Prefix.
type ImageStyle struct {
	Name   string `json:"name" yaml:"name" validate:"required,galleryid"`
	Label  string `json:"label" yaml:"label" validate:"required"`
	Prefix string `json:"prefix" yaml:"prefix" validate:"required"`
}

func (s ImageStyle) CacheTags() []string {
	return []string{"image_style:" + s.Name}
}

func (s ImageStyle) DependencyKey() string {
	return "config"
}

func (s ImageStyle) DependencyName() string {
	return "image.style." + s.Name
}

// ImageStyles is the catalogue of styles a formatter may reference.
type ImageStyles interface {
	ImageStyle(name string) (ImageStyle, bool)
	ImageStyles() []ImageStyle
}

// StyleCatalogue is an ordered, static ImageStyles.
type StyleCatalogue []ImageStyle

func (c StyleCatalogue) ImageStyle(name string) (ImageStyle, bool) {
	if name == "" {
		return ImageStyle{}, false
	}
	for _, style := range c {
		if style.Name == name {
			return style, true
		}
	}
	return ImageStyle{}, false
}

func (c StyleCatalogue) ImageStyles() []ImageStyle {
	return c
}
