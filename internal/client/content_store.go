package client

import (
	"context"
	"encoding/base64"
)

// ContentStore accepts encoded images and returns a stable retrievable URL.
type ContentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// InlineStore is used when no object storage is configured. It embeds the
// bytes in the returned reference as a data URI.
type InlineStore struct{}

func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (InlineStore) Put(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Delete is a no-op; inline references live inside the persisted records.
func (InlineStore) Delete(context.Context, string) error {
	return nil
}
