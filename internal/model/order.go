package model

import (
	"strings"
	"time"
)

// Order is the customer order whose roster is rendered into collage variants.
// The order record is owned by the storefront; the render pipeline only reads
// it and patches RenderedOutputs.
type Order struct {
	ID              string            `json:"id"`
	GridKind        GridKind          `json:"gridKind"`
	Members         []Member          `json:"members"`
	RenderedOutputs map[string]string `json:"renderedOutputs,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Member is one participant of a group order.
type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber,omitempty"`
	// PhotoRef is either a data URI or a remote URL.
	PhotoRef string `json:"photoRef,omitempty"`
	Size     string `json:"size,omitempty"`
	Votes    int    `json:"votes,omitempty"`
}

// HasPhoto reports whether the member carries a usable photo reference.
func (m Member) HasPhoto() bool {
	return strings.TrimSpace(m.PhotoRef) != ""
}

// Variant is one candidate rendering of an order, distinguished by which
// member sits in the center cell.
type Variant struct {
	ID           string   `json:"id"`
	CenterMember Member   `json:"centerMember"`
	Members      []Member `json:"members"`
	GridKind     GridKind `json:"gridKind"`
	// CenterIndex is the position in Members held by CenterMember.
	CenterIndex int `json:"centerIndex"`
}

// Border returns the members drawn around the center, in slot order. The
// center member is never part of it, even when the roster is shorter than
// the layout.
func (v Variant) Border() []Member {
	if v.CenterIndex < 0 || v.CenterIndex >= len(v.Members) {
		return v.Members
	}
	out := make([]Member, 0, len(v.Members)-1)
	out = append(out, v.Members[:v.CenterIndex]...)
	return append(out, v.Members[v.CenterIndex+1:]...)
}
