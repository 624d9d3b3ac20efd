package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bandarlab/synthesis"
)

// Frame is one tick batch pushed by the upstream feed. Records are kept
// loosely typed; the normalizer downstream tolerates the field-name
// variants different upstreams emit.
type Frame struct {
	Ticker  string                   `json:"ticker"`
	Date    string                   `json:"date"`
	Records []map[string]interface{} `json:"records"`
}

// Client consumes tick batches from a WebSocket feed and forwards them
// into the synthesis service.
type Client struct {
	url     string
	header  http.Header
	service *synthesis.Service

	// writeMu guards conn: the reconnect path in Run swaps it while the
	// ping goroutine is still writing to the old one.
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewClient creates a new feed client
func NewClient(url, authToken string, service *synthesis.Service) *Client {
	header := make(http.Header)
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}

	return &Client{
		url:     url,
		header:  header,
		service: service,
	}
}

// Connect establishes the WebSocket connection
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	log.Printf("✅ Connected to tick feed at %s", c.url)
	return nil
}

// current returns the live connection, if any.
func (c *Client) current() *websocket.Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn
}

// Close closes the connection
func (c *Client) Close() error {
	if conn := c.current(); conn != nil {
		return conn.Close()
	}
	return nil
}

// StartPing keeps the connection alive with periodic control pings
func (c *Client) StartPing(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.writeMu.Lock()
				conn := c.conn
				var err error
				if conn != nil {
					err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
				c.writeMu.Unlock()
				if err != nil {
					// The read loop owns reconnection; pings resume on
					// the fresh connection next tick.
					log.Println("Failed to send ping:", err)
				}
			}
		}
	}()
}

// Run reads frames until ctx is canceled, reconnecting with exponential
// backoff on connection errors. Malformed frames and ingest failures are
// logged and skipped, never fatal.
func (c *Client) Run(ctx context.Context) {
	reconnectDelay := 5 * time.Second
	maxReconnectDelay := 60 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := c.current().ReadMessage()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					log.Printf("⚠️  Feed error: %v", err)
					log.Printf("🔄 Attempting to reconnect in %v...", reconnectDelay)

					select {
					case <-ctx.Done():
						return
					case <-time.After(reconnectDelay):
					}

					if err := c.Connect(); err != nil {
						log.Printf("❌ Feed reconnection failed: %v", err)
						reconnectDelay = reconnectDelay * 2
						if reconnectDelay > maxReconnectDelay {
							reconnectDelay = maxReconnectDelay
						}
						continue
					}

					reconnectDelay = 5 * time.Second
					continue
				}
			}

			if err := c.handleFrame(ctx, message); err != nil {
				log.Printf("Frame error: %v", err)
				continue
			}
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, message []byte) error {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return fmt.Errorf("malformed frame: %w", err)
	}
	if frame.Ticker == "" || frame.Date == "" {
		return fmt.Errorf("frame missing ticker or date")
	}
	if len(frame.Records) == 0 {
		return nil
	}

	result, err := c.service.Ingest(ctx, frame.Ticker, frame.Date, frame.Records)
	if err != nil {
		return fmt.Errorf("ingest %s %s: %w", frame.Ticker, frame.Date, err)
	}

	log.Printf("📡 Feed batch %s %s: %d saved, %d dropped",
		frame.Ticker, frame.Date, result.RecordsSaved, result.RecordsDropped)
	return nil
}
