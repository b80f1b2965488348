package photobox

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownCaption     = errors.New("unknown caption source")
	ErrImageStyleNotFound = errors.New("image style not found")
	ErrFormatterNotFound  = errors.New("formatter not found")
	ErrDuplicateFormatter = errors.New("formatter is already registered")
)

// Caption selects which image text is shown as the caption in the viewer.
type Caption string

const (
	CaptionNone  Caption = ""
	CaptionTitle Caption = "title"
	CaptionAlt   Caption = "alt"
)

// FormatterSettings are the per-field options of a formatter.
type FormatterSettings struct {
	LargeImageStyle string       `json:"large_image_style" yaml:"largeImageStyle"`
	ImageStyle      string       `json:"image_style" yaml:"imageStyle"`
	Gallery         GroupingMode `json:"gallery" yaml:"gallery"`
	Caption         Caption      `json:"caption" yaml:"caption"`
	UnsavedEntityID string       `json:"unsaved_entity_id" yaml:"unsavedEntityId"`
}

// FieldImage is a single value of an image field.
type FieldImage struct {
	Path  string
	Title string
	Alt   string
}

// FieldItems holds all values of one image field of one entity.
type FieldItems struct {
	EntityID  string
	FieldName string
	Images    []FieldImage
}

// Element is the render-ready form of a FieldImage.
type Element struct {
	Delta     int
	GalleryID string
	Href      string
	Src       string
	Alt       string
	Caption   string
	CacheTags []string
}

type FormOption struct {
	Value string
	Label string
}

// FormField is one select of the formatter settings form.
type FormField struct {
	Name        string
	Title       string
	Description string
	Required    bool
	EmptyOption string
	Options     []FormOption
	Value       string
}

// Dependencies maps a dependency kind ("config") to the names depended upon.
type Dependencies map[string][]string

// Formatter turns image field values into gallery elements.
type Formatter interface {
	DefaultSettings() FormatterSettings
	SettingsForm() []FormField
	SettingsSummary() []string
	ViewElements(items FieldItems) []Element
	CalculateDependencies() Dependencies
}

// URLBuilder resolves the public URL of a file rendered in a given style.
// The zero ImageStyle stands for the original image.
type URLBuilder interface {
	FileURL(style ImageStyle, path string) string
}

var galleryOptions = []FormOption{
	{string(GroupAll), "All (Group all images on the page into 1 gallery)"},
	{string(GroupEntity), "Same content (Group images by entity)"},
	{string(GroupField), "Same field name (Group images by field)"},
	{string(GroupEntityField), "Separate (Every image field is a different group)"},
}

var captionOptions = []FormOption{
	{string(CaptionTitle), "Title text"},
	{string(CaptionAlt), "Alt text"},
}

type PhotoboxFormatter struct {
	settings FormatterSettings
	resolver *Resolver
	styles   ImageStyles
	urls     URLBuilder
}

var _ Formatter = &PhotoboxFormatter{}

// NewPhotoboxFormatter fills unset options from DefaultSettings and rejects
// settings that could not be rendered.
func NewPhotoboxFormatter(settings FormatterSettings, styles ImageStyles, urls URLBuilder) (*PhotoboxFormatter, error) {
	f := &PhotoboxFormatter{styles: styles, urls: urls}

	if settings.Gallery == "" {
		settings.Gallery = f.DefaultSettings().Gallery
	}
	if err := ValidateFormatterSettings(settings, styles); err != nil {
		return nil, err
	}

	resolver, err := NewResolver(settings.Gallery, settings.UnsavedEntityID)
	if err != nil {
		return nil, err
	}

	f.settings = settings
	f.resolver = resolver
	return f, nil
}

func ValidateFormatterSettings(settings FormatterSettings, styles ImageStyles) error {
	if _, err := ParseGroupingMode(string(settings.Gallery)); err != nil {
		return err
	}

	switch settings.Caption {
	case CaptionNone, CaptionTitle, CaptionAlt:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownCaption, settings.Caption)
	}

	if settings.UnsavedEntityID != "" && !ValidIdentifier(settings.UnsavedEntityID) {
		return fmt.Errorf("unsaved entity id '%s': %w", settings.UnsavedEntityID, ErrInvalidIdentifier)
	}

	for _, name := range []string{settings.ImageStyle, settings.LargeImageStyle} {
		if name == "" {
			continue
		}
		if _, ok := styles.ImageStyle(name); !ok {
			return fmt.Errorf("%w: '%s'", ErrImageStyleNotFound, name)
		}
	}
	return nil
}

func (f *PhotoboxFormatter) Settings() FormatterSettings {
	return f.settings
}

func (f *PhotoboxFormatter) DefaultSettings() FormatterSettings {
	return FormatterSettings{
		LargeImageStyle: "",
		ImageStyle:      "",
		Gallery:         GroupAll,
		Caption:         CaptionNone,
	}
}

func (f *PhotoboxFormatter) styleOptions() []FormOption {
	options := make([]FormOption, 0)
	for _, style := range f.styles.ImageStyles() {
		options = append(options, FormOption{style.Name, style.Label})
	}
	return options
}

func (f *PhotoboxFormatter) SettingsForm() []FormField {
	styleOptions := f.styleOptions()

	return []FormField{
		{
			Name:        "large_image_style",
			Title:       "Large image style",
			EmptyOption: "None (original image)",
			Options:     styleOptions,
			Value:       f.settings.LargeImageStyle,
		},
		{
			Name:        "image_style",
			Title:       "Image style",
			EmptyOption: "None (original image)",
			Options:     styleOptions,
			Value:       f.settings.ImageStyle,
		},
		{
			Name:     "gallery",
			Title:    "Gallery (image grouping)",
			Required: true,
			Options:  galleryOptions,
			Value:    string(f.settings.Gallery),
			Description: "How to group images on the page: " +
				"All: group all images on the page into 1 gallery. " +
				"Same content: group images by entity. " +
				"Same field name: group images by field. " +
				"Separate: every image field is a different group. Useful only for multi value images.",
		},
		{
			Name:        "caption",
			Title:       "Caption",
			EmptyOption: "No caption",
			Options:     captionOptions,
			Value:       string(f.settings.Caption),
		},
	}
}

func (f *PhotoboxFormatter) SettingsSummary() []string {
	styleLabel := func(name string) string {
		if style, ok := f.styles.ImageStyle(name); ok && name != "" {
			return style.Label
		}
		return "Original image"
	}

	return []string{
		"Small image style: " + styleLabel(f.settings.ImageStyle),
		"Large image style: " + styleLabel(f.settings.LargeImageStyle),
		"Gallery type: " + optionLabel(galleryOptions, string(f.settings.Gallery), "No gallery"),
		"Image caption: " + optionLabel(captionOptions, string(f.settings.Caption), "No caption"),
	}
}

func optionLabel(options []FormOption, value string, fallback string) string {
	for _, option := range options {
		if option.Value == value {
			return option.Label
		}
	}
	return fallback
}

func (f *PhotoboxFormatter) ViewElements(items FieldItems) []Element {
	elements := make([]Element, 0, len(items.Images))
	if len(items.Images) == 0 {
		return elements
	}

	thumbStyle, _ := f.styles.ImageStyle(f.settings.ImageStyle)
	largeStyle, _ := f.styles.ImageStyle(f.settings.LargeImageStyle)

	baseTags := []string{SettingsCacheTag}
	if f.settings.ImageStyle != "" {
		baseTags = append(baseTags, thumbStyle.CacheTags()...)
	}

	for delta, img := range items.Images {
		galleryID := f.resolver.Resolve(ImageItem{
			EntityID:  items.EntityID,
			FieldName: items.FieldName,
			Delta:     delta,
		})

		var caption string
		switch f.settings.Caption {
		case CaptionTitle:
			caption = img.Title
		case CaptionAlt:
			caption = img.Alt
		}

		elements = append(elements, Element{
			Delta:     delta,
			GalleryID: galleryID,
			Href:      f.urls.FileURL(largeStyle, img.Path),
			Src:       f.urls.FileURL(thumbStyle, img.Path),
			Alt:       img.Alt,
			Caption:   caption,
			CacheTags: MergeCacheTags(baseTags, []string{"file:" + img.Path}),
		})
	}

	return elements
}

func (f *PhotoboxFormatter) CalculateDependencies() Dependencies {
	dependencies := make(Dependencies)
	for _, name := range []string{f.settings.LargeImageStyle, f.settings.ImageStyle} {
		if name == "" {
			continue
		}
		style, ok := f.styles.ImageStyle(name)
		if !ok {
			continue
		}
		key := style.DependencyKey()
		if !slices.Contains(dependencies[key], style.DependencyName()) {
			dependencies[key] = append(dependencies[key], style.DependencyName())
		}
	}
	return dependencies
}

// MergeCacheTags returns the sorted union of the given tag lists.
func MergeCacheTags(lists ...[]string) []string {
	merged := make([]string, 0)
	for _, list := range lists {
		merged = append(merged, list...)
	}
	slices.Sort(merged)
	return slices.Compact(merged)
}
