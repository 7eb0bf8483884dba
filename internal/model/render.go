package model

import "time"

// OrderUpsertRequest imports or replaces an order roster
type OrderUpsertRequest struct {
	GridKind GridKind             `json:"gridKind" validate:"required,oneof=square hexagonal"`
	Members  []OrderMemberRequest `json:"members" validate:"required,min=1,max=200,unique=ID,dive"`
}

// OrderMemberRequest is one roster entry of an OrderUpsertRequest
type OrderMemberRequest struct {
	ID         string `json:"id" validate:"required,max=128"`
	Name       string `json:"name" validate:"required,max=256"`
	RollNumber string `json:"rollNumber" validate:"omitempty,max=64"`
	PhotoRef   string `json:"photoRef"`
	Size       string `json:"size" validate:"omitempty,max=16"`
	Votes      int    `json:"votes" validate:"min=0"`
}

// RenderEnqueueRequest triggers variant rendering for an order
type RenderEnqueueRequest struct {
	Force bool `json:"force"`
}

// RenderEnqueueResponse is returned by the render trigger
type RenderEnqueueResponse struct {
	OrderID  string    `json:"orderId"`
	Status   JobStatus `json:"status"`
	Enqueued bool      `json:"enqueued"`
}

// RenderStatusResponse is the polling snapshot of a render job
type RenderStatusResponse struct {
	OrderID        string          `json:"orderId"`
	Status         JobStatus       `json:"status"`
	CompletedCount int             `json:"completedCount"`
	FailedCount    int             `json:"failedCount"`
	TotalCount     int             `json:"totalCount"`
	PerVariant     []VariantStatus `json:"perVariant"`
	Error          *string         `json:"error"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt"`
	CompletedAt    *time.Time      `json:"completedAt"`
}

// VariantView is a variant joined back to member metadata for presentation
type VariantView struct {
	VariantID    string       `json:"variantId"`
	GridKind     GridKind     `json:"gridKind"`
	CenterMember MemberView   `json:"centerMember"`
	Members      []MemberView `json:"members"`
	ImageURL     string       `json:"imageUrl,omitempty"`
}

// MemberView is the presentation projection of a Member
type MemberView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber,omitempty"`
}

// VariantsResponse is the read-optimized projection of an order's variants
type VariantsResponse struct {
	OrderID                      string            `json:"orderId"`
	SquareVariants               []VariantView     `json:"squareVariants"`
	HexVariants                  []VariantView     `json:"hexVariants"`
	RenderedImageURLsByVariantID map[string]string `json:"renderedImageUrlsByVariantId"`
}
