package led

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hybridz/stripalerts/internal/alerts"
)

// Frame is the JSON command format sent to the LED gateway daemon.
type Frame struct {
	Op         string   `json:"op"` // "setup", "color", "animation", "clear"
	Color      [3]uint8 `json:"color,omitempty"`
	Animation  string   `json:"animation,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Pixels     int      `json:"pixels,omitempty"`
	Brightness float64  `json:"brightness,omitempty"`
}

// GatewayStrip drives an LED strip through a WebSocket connection to the LED
// gateway daemon that owns the hardware.
type GatewayStrip struct {
	url        string
	token      string
	pixels     int
	brightness float64

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewGatewayStrip creates an LED gateway client for a strip with the given
// pixel count and brightness.
func NewGatewayStrip(url, token string, pixels int, brightness float64) *GatewayStrip {
	return &GatewayStrip{
		url:        url,
		token:      token,
		pixels:     pixels,
		brightness: brightness,
	}
}

// Connect establishes the WebSocket connection and sends the setup frame.
func (g *GatewayStrip) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	header := make(map[string][]string)
	if g.token != "" {
		header["Authorization"] = []string{"Bearer " + g.token}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(g.url, header)
	if err != nil {
		return fmt.Errorf("connect to LED gateway: %w", err)
	}
	g.conn = conn
	log.Printf("connected to LED gateway at %s", g.url)

	return g.writeLocked(Frame{Op: "setup", Pixels: g.pixels, Brightness: g.brightness})
}

// SetColor fills the strip with a solid color.
func (g *GatewayStrip) SetColor(c alerts.Color) error {
	return g.write(Frame{Op: "color", Color: c.RGB()})
}

// PlayAnimation starts a named animation for the given duration.
func (g *GatewayStrip) PlayAnimation(name string, d time.Duration) error {
	return g.write(Frame{Op: "animation", Animation: name, DurationMS: d.Milliseconds()})
}

// Clear turns the strip off.
func (g *GatewayStrip) Clear() error {
	return g.write(Frame{Op: "clear"})
}

// Close closes the WebSocket connection.
func (g *GatewayStrip) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn != nil {
		return g.conn.Close()
	}
	return nil
}

func (g *GatewayStrip) write(f Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writeLocked(f)
}

func (g *GatewayStrip) writeLocked(f Frame) error {
	if g.conn == nil {
		return fmt.Errorf("not connected to LED gateway")
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	if err := g.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}
