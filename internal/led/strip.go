package led

import (
	"time"

	"github.com/hybridz/stripalerts/internal/alerts"
)

// Strip is the actuator boundary. It is accessed exclusively by the Renderer;
// any error from it is treated as an actuator fault.
type Strip interface {
	// SetColor fills the strip with a solid color.
	SetColor(c alerts.Color) error
	// PlayAnimation starts a named animation. A zero duration means the
	// animation runs until replaced.
	PlayAnimation(name string, d time.Duration) error
	// Clear turns the strip off.
	Clear() error
}
