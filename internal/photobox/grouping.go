package photobox

import (
	"errors"
	"fmt"
	"regexp"
)

// GroupingMode selects how images on a page are split into galleries.
type GroupingMode string

const (
	GroupAll         GroupingMode = "all"
	GroupEntity      GroupingMode = "entity"
	GroupField       GroupingMode = "field"
	GroupEntityField GroupingMode = "entity_field"
)

const (
	galleryPrefix = "gallery-"

	// AllGalleryID is stamped on every image when grouping by GroupAll.
	AllGalleryID = "gallery-all"

	// DefaultUnsavedEntityID stands in for the id of entities that were not persisted yet.
	DefaultUnsavedEntityID = "new"
)

var (
	ErrUnknownGroupingMode = errors.New("unknown grouping mode")
	ErrInvalidIdentifier   = errors.New("identifier must only contain lowercase letters, numbers, hyphen and underscores")

	identifierRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

var groupingModes = []GroupingMode{GroupAll, GroupEntity, GroupField, GroupEntityField}

// ParseGroupingMode fails on anything outside the four known modes, so a bad
// configuration is caught at setup time rather than while rendering.
func ParseGroupingMode(s string) (GroupingMode, error) {
	for _, mode := range groupingModes {
		if string(mode) == s {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknownGroupingMode, s)
}

// ValidIdentifier reports whether s is safe to use as a part of a gallery id.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// ImageItem is one rendered value of an image field.
type ImageItem struct {
	// EntityID is empty for entities that have not been saved yet.
	EntityID  string
	FieldName string
	Delta     int
}

// Resolver computes the gallery id of image items for one formatter.
type Resolver struct {
	Mode            GroupingMode
	UnsavedEntityID string
}

func NewResolver(mode GroupingMode, unsavedEntityID string) (*Resolver, error) {
	if _, err := ParseGroupingMode(string(mode)); err != nil {
		return nil, err
	}
	if unsavedEntityID == "" {
		unsavedEntityID = DefaultUnsavedEntityID
	}
	if !ValidIdentifier(unsavedEntityID) {
		return nil, fmt.Errorf("unsaved entity id '%s': %w", unsavedEntityID, ErrInvalidIdentifier)
	}
	return &Resolver{Mode: mode, UnsavedEntityID: unsavedEntityID}, nil
}

// Resolve never fails: the mode was checked when the resolver was built, and
// unsaved entities fall back to UnsavedEntityID.
func (r *Resolver) Resolve(item ImageItem) string {
	switch r.Mode {
	case GroupEntity:
		return galleryPrefix + r.entityID(item)
	case GroupField:
		return galleryPrefix + item.FieldName
	case GroupEntityField:
		return galleryPrefix + r.entityID(item) + "-" + item.FieldName
	default:
		return AllGalleryID
	}
}

func (r *Resolver) entityID(item ImageItem) string {
	if item.EntityID != "" {
		return item.EntityID
	}
	if r.UnsavedEntityID != "" {
		return r.UnsavedEntityID
	}
	return DefaultUnsavedEntityID
}
