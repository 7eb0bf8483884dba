package model

// Grid kinds
type GridKind string

const (
	GridKindSquare    GridKind = "square"
	GridKindHexagonal GridKind = "hexagonal"
)

// IDPrefix is prepended to variant ids so square and hexagonal variants of
// the same center member never collide.
func (k GridKind) IDPrefix() string {
	if k == GridKindHexagonal {
		return "hex-"
	}
	return ""
}

// Job status
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Variant status
type VariantState string

const (
	VariantStatePending   VariantState = "pending"
	VariantStateCompleted VariantState = "completed"
	VariantStateFailed    VariantState = "failed"
)
