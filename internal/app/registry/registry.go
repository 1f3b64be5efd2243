// Package registry maps a moderatable content type tag to the metadata the
// queue, transition engine and stores need to work with it. Nothing above
// the registry branches on a concrete content type.
package registry

import (
	"sync"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
)

// Type is a content type tag as used in URLs and request bodies.
type Type string

const (
	Business     Type = "business"
	Career       Type = "career"
	Events       Type = "events"
	Achievements Type = "achievements"
	Scholarships Type = "scholarships"
)

// Entry describes one moderatable content type.
type Entry struct {
	Type Type
	// Label is the human noun used in notification text ("business listing").
	Label      string
	Collection string

	StatusField      string
	OwnerField       string
	SubmittedField   string
	VisibilityField  string // empty when the type has no visibility control
	PublishDateField string // empty when the type is never published

	// New returns a zero value of the concrete type, ready for decoding.
	New func() models.Moderatable
}

// Publishes reports whether approval stamps a publish date.
func (e Entry) Publishes() bool { return e.PublishDateField != "" }

// Registry holds the set of moderatable types, in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []Type
	entries map[Type]Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[Type]Entry)}
}

// Register adds or replaces an entry. Unset field names fall back to the
// names used by models.Moderation.
func (r *Registry) Register(e Entry) {
	if e.StatusField == "" {
		e.StatusField = "status"
	}
	if e.OwnerField == "" {
		e.OwnerField = "owner_id"
	}
	if e.SubmittedField == "" {
		e.SubmittedField = "submitted_at"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Type]; !exists {
		r.order = append(r.order, e.Type)
	}
	r.entries[e.Type] = e
}

// Lookup returns the entry for t, or an UnknownTypeError.
func (r *Registry) Lookup(t Type) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[t]
	if !ok {
		return Entry{}, &moderr.UnknownTypeError{Type: string(t)}
	}
	return e, nil
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.entries[t])
	}
	return out
}

// Default returns a registry with the five community content types.
func Default() *Registry {
	r := New()
	r.Register(Entry{
		Type:             Business,
		Label:            "business listing",
		Collection:       "business_listings",
		VisibilityField:  "visibility",
		PublishDateField: "publish_date",
		New:              func() models.Moderatable { return &models.BusinessListing{} },
	})
	r.Register(Entry{
		Type:             Career,
		Label:            "career listing",
		Collection:       "career_listings",
		VisibilityField:  "visibility",
		PublishDateField: "publish_date",
		New:              func() models.Moderatable { return &models.CareerListing{} },
	})
	r.Register(Entry{
		Type:             Events,
		Label:            "event",
		Collection:       "events",
		VisibilityField:  "visibility",
		PublishDateField: "publish_date",
		New:              func() models.Moderatable { return &models.Event{} },
	})
	r.Register(Entry{
		Type:             Achievements,
		Label:            "achievement",
		Collection:       "achievements",
		VisibilityField:  "visibility",
		PublishDateField: "publish_date",
		New:              func() models.Moderatable { return &models.Achievement{} },
	})
	r.Register(Entry{
		Type:             Scholarships,
		Label:            "scholarship",
		Collection:       "scholarships",
		VisibilityField:  "visibility",
		PublishDateField: "publish_date",
		New:              func() models.Moderatable { return &models.Scholarship{} },
	})
	return r
}
