// Package variant enumerates the center-rotation variants of an order.
package variant

import (
	"errors"
	"strings"

	"github.com/groupcollage/api/internal/model"
)

// ErrTooFewMembers is returned when fewer than two members have a photo.
var ErrTooFewMembers = errors.New("cannot render a collage with fewer than two photographed participants")

// MatchKey extracts one identity key from a member. Empty keys never match.
type MatchKey struct {
	Name string
	Key  func(model.Member) string
}

// DefaultMatchKeys is the prioritized identity fallback: id, then roll
// number, then display name. The fallbacks tolerate inconsistent upstream
// identifiers; they do not guarantee identity when names repeat.
var DefaultMatchKeys = []MatchKey{
	{Name: "id", Key: func(m model.Member) string { return m.ID }},
	{Name: "rollNumber", Key: func(m model.Member) string { return m.RollNumber }},
	{Name: "name", Key: func(m model.Member) string { return strings.ToLower(strings.TrimSpace(m.Name)) }},
}

// Locate returns the index of target in members using the first key that
// yields a match, or -1.
func Locate(members []model.Member, target model.Member, keys []MatchKey) int {
	for _, k := range keys {
		want := k.Key(target)
		if want == "" {
			continue
		}
		for i, m := range members {
			if k.Key(m) == want {
				return i
			}
		}
	}
	return -1
}

// Photographed returns the members with a usable photo reference, in order.
func Photographed(members []model.Member) []model.Member {
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.HasPhoto() {
			out = append(out, m)
		}
	}
	return out
}

// ID returns the deterministic variant id for a center member.
func ID(kind model.GridKind, centerMemberID string) string {
	return kind.IDPrefix() + "variant-" + centerMemberID
}

// Enumerator builds variants with a configurable identity fallback.
type Enumerator struct {
	Keys []MatchKey
}

// New returns an enumerator using DefaultMatchKeys.
func New() *Enumerator {
	return &Enumerator{Keys: DefaultMatchKeys}
}

// Enumerate produces one variant per photographed member. Each variant is a
// fresh copy of the photographed roster with the candidate swapped into
// centerIndex and the previous holder moved to the candidate's position.
// centerIndex is clamped to the roster and recorded on the variant so
// renderers can draw the border without the center member. Candidates that
// cannot be located are skipped.
func (e *Enumerator) Enumerate(members []model.Member, centerIndex int, kind model.GridKind) ([]model.Variant, error) {
	roster := Photographed(members)
	if len(roster) < 2 {
		return nil, ErrTooFewMembers
	}

	if centerIndex < 0 {
		centerIndex = 0
	}
	if centerIndex > len(roster)-1 {
		centerIndex = len(roster) - 1
	}

	keys := e.Keys
	if len(keys) == 0 {
		keys = DefaultMatchKeys
	}

	variants := make([]model.Variant, 0, len(roster))
	for _, candidate := range roster {
		pos := Locate(roster, candidate, keys)
		if pos < 0 {
			continue
		}

		ordered := make([]model.Member, len(roster))
		copy(ordered, roster)
		ordered[pos], ordered[centerIndex] = ordered[centerIndex], ordered[pos]

		variants = append(variants, model.Variant{
			ID:           ID(kind, centerKey(candidate)),
			CenterMember: candidate,
			Members:      ordered,
			GridKind:     kind,
			CenterIndex:  centerIndex,
		})
	}
	return variants, nil
}

// centerKey falls back to the roll number when a member has no id.
func centerKey(m model.Member) string {
	if m.ID != "" {
		return m.ID
	}
	if m.RollNumber != "" {
		return m.RollNumber
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(m.Name), " ", "-"))
}
