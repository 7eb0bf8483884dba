package model

import "time"

// RenderJob is the persisted progress record for rendering every variant of
// one order. It is keyed by order id.
type RenderJob struct {
	OrderID           string          `json:"orderId"`
	Status            JobStatus       `json:"status"`
	TotalVariants     int             `json:"totalVariants"`
	CompletedVariants int             `json:"completedVariants"`
	FailedVariants    int             `json:"failedVariants"`
	Variants          []VariantStatus `json:"variants"`
	Error             *string         `json:"error,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	StartedAt         *time.Time      `json:"startedAt,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
}

// VariantStatus tracks a single variant inside a RenderJob.
type VariantStatus struct {
	VariantID      string       `json:"variantId"`
	CenterMemberID string       `json:"centerMemberId"`
	GridKind       GridKind     `json:"gridKind"`
	Status         VariantState `json:"status"`
	ImageURL       string       `json:"imageUrl,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// NewRenderJob returns a fresh queued job for an order.
func NewRenderJob(orderID string, now time.Time) *RenderJob {
	return &RenderJob{
		OrderID:   orderID,
		Status:    JobStatusQueued,
		Variants:  []VariantStatus{},
		CreatedAt: now,
	}
}

// VariantOutput is the stored result of one rendered variant. It is unique per
// (OrderID, VariantID).
type VariantOutput struct {
	OrderID   string       `json:"orderId"`
	VariantID string       `json:"variantId"`
	GridKind  GridKind     `json:"gridKind"`
	ImageURL  string       `json:"imageUrl"`
	ObjectKey string       `json:"objectKey,omitempty"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Bytes     int          `json:"bytes"`
	Format    string       `json:"format"`
	Status    VariantState `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Task types
const (
	TaskTypeRenderVariants = "render:variants"
)

// RenderTaskPayload is the asynq payload for a render job.
type RenderTaskPayload struct {
	OrderID string `json:"orderId"`
}
