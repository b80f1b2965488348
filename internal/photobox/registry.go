package photobox

import (
	"fmt"
	"slices"
)

// Registry maps image field names to the formatter rendering them. Fields
// without an explicit formatter use the fallback.
type Registry struct {
	formatters map[string]Formatter
	fallback   Formatter
}

func NewRegistry(fallback Formatter) *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		fallback:   fallback,
	}
}

func (r *Registry) Register(field string, formatter Formatter) error {
	if !ValidIdentifier(field) {
		return fmt.Errorf("field name '%s': %w", field, ErrInvalidIdentifier)
	}
	if _, ok := r.formatters[field]; ok {
		return fmt.Errorf("%w: '%s'", ErrDuplicateFormatter, field)
	}
	r.formatters[field] = formatter
	return nil
}

func (r *Registry) Formatter(field string) (Formatter, error) {
	if formatter, ok := r.formatters[field]; ok {
		return formatter, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrFormatterNotFound, field)
}

// Fields returns the explicitly registered field names in sorted order.
func (r *Registry) Fields() []string {
	fields := make([]string, 0, len(r.formatters))
	for field := range r.formatters {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}
