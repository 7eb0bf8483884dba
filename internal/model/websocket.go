package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage is sent after every variant reaches a terminal state
type WSProgressMessage struct {
	Type      string        `json:"type"`
	OrderID   string        `json:"orderId"`
	Status    JobStatus     `json:"status"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Total     int           `json:"total"`
	Variant   VariantStatus `json:"variant"`
}

// WSCompleteMessage represents job completion
type WSCompleteMessage struct {
	Type    string               `json:"type"`
	OrderID string               `json:"orderId"`
	Result  RenderStatusResponse `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type    string  `json:"type"`
	OrderID string  `json:"orderId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
