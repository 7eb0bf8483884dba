package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/groupcollage/api/internal/logging"
	"github.com/groupcollage/api/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	OrderID string
	Conn    *websocket.Conn
	Send    chan []byte
	done    chan struct{}
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by order ID
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Broadcast messages to order subscribers
	broadcast chan *BroadcastMessage

	// closed when Run returns
	stopped chan struct{}

	logger *zap.Logger
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	OrderID string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		stopped:    make(chan struct{}),
		logger:     logging.OrNop(logger),
	}
}

// Run starts the hub's main loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			if h.clients[client.OrderID] == nil {
				h.clients[client.OrderID] = make(map[*Client]bool)
			}
			h.clients[client.OrderID][client] = true
			h.logger.Debug("client registered", zap.String("orderId", client.OrderID))

		case client := <-h.unregister:
			if clients, ok := h.clients[client.OrderID]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.clients, client.OrderID)
				}
			}
			h.logger.Debug("client unregistered", zap.String("orderId", client.OrderID))

		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.OrderID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						// slow consumer misses the update; the next one
						// carries the cumulative counts
					}
				}
			}
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// NewClient returns a client subscribed to orderID's updates.
func NewClient(conn *websocket.Conn, orderID string) *Client {
	return &Client{
		OrderID: orderID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		done:    make(chan struct{}),
	}
}

// BroadcastProgress sends a progress update after a variant settles
func (h *Hub) BroadcastProgress(job *model.RenderJob, v model.VariantStatus) {
	h.send(job.OrderID, model.WSProgressMessage{
		Type:      model.WSMessageTypeProgress,
		OrderID:   job.OrderID,
		Status:    job.Status,
		Completed: job.CompletedVariants,
		Failed:    job.FailedVariants,
		Total:     job.TotalVariants,
		Variant:   v,
	})
}

// BroadcastComplete sends the final job snapshot to all order subscribers
func (h *Hub) BroadcastComplete(status *model.RenderStatusResponse) {
	h.send(status.OrderID, model.WSCompleteMessage{
		Type:    model.WSMessageTypeComplete,
		OrderID: status.OrderID,
		Result:  *status,
	})
}

// BroadcastError sends an error message to all order subscribers
func (h *Hub) BroadcastError(orderID string, code, message string) {
	h.send(orderID, model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		OrderID: orderID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

// send queues msg without blocking the render loop; it is dropped when the
// hub is saturated.
func (h *Hub) send(orderID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{OrderID: orderID, Message: data}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", zap.String("orderId", orderID))
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, orderID string) {
	client := NewClient(c, orderID)

	h.Register(client)
	defer func() {
		h.Unregister(client)
		close(client.done)
	}()

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-client.done:
				_ = c.WriteMessage(websocket.CloseMessage, []byte{})
				return

			case message := <-client.Send:
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", zap.String("orderId", orderID), zap.Error(err))
			}
			break
		}

		// Handle client messages (ping/pong)
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			select {
			case client.Send <- pong:
			default:
			}
		}
	}
}
