package alerts

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hybridz/stripalerts/internal/feed"
)

// Tier is the classification outcome of a raw event.
type Tier int

const (
	TierNone Tier = iota
	TierStandard
	TierColor
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierColor:
		return "color"
	default:
		return "none"
	}
}

// Alert is a classified event ready for rendering. It is immutable after
// creation; exactly one Alert is derived from each qualifying raw event.
type Alert struct {
	ID        string
	Tier      Tier
	Color     Color
	Animation string
	Duration  time.Duration
	SourceID  string // raw event ID
	TipTokens int    // 0 for chat-originated alerts
}

// Classifier maps raw feed events to alerts according to the configured
// token thresholds.
type Classifier struct {
	StandardThreshold int
	ColorThreshold    int
	AlertDuration     time.Duration
	MaxAlertDuration  time.Duration
	DefaultColor      Color
	AlertAnimation    string // standard-tier animation
	ColorAnimation    string // color-tier animation

	malformed atomic.Uint64
}

// Malformed returns the number of unparseable events skipped so far.
func (c *Classifier) Malformed() uint64 { return c.malformed.Load() }

// Classify applies the classification rules in order:
//  1. Chat messages naming a palette color while the color window is open
//     classify to COLOR; all other non-tip events classify to NONE.
//  2. Tips below the standard threshold classify to NONE.
//  3. Tips at or above the color threshold classify to COLOR, with the color
//     taken from the tip message when it names a palette color.
//  4. All other tips classify to STANDARD with a token-scaled duration.
//
// Malformed events (missing payloads, unknown methods) classify to NONE and
// are counted; classification never fails.
func (c *Classifier) Classify(ev feed.Event, colorWindowOpen bool) Alert {
	switch ev.Method {
	case feed.MethodTip:
		if ev.Object == nil || ev.Object.Tip == nil {
			c.malformed.Add(1)
			return Alert{Tier: TierNone, SourceID: ev.ID}
		}
		return c.classifyTip(ev.ID, ev.Object.Tip)

	case feed.MethodChatMessage, feed.MethodPrivateMessage:
		if ev.Object == nil || ev.Object.Message == nil {
			c.malformed.Add(1)
			return Alert{Tier: TierNone, SourceID: ev.ID}
		}
		if !colorWindowOpen {
			return Alert{Tier: TierNone, SourceID: ev.ID}
		}
		color, ok := ParseColor(ev.Object.Message.Message)
		if !ok {
			return Alert{Tier: TierNone, SourceID: ev.ID}
		}
		return Alert{
			ID:        uuid.NewString(),
			Tier:      TierColor,
			Color:     color,
			Animation: c.ColorAnimation,
			Duration:  c.AlertDuration,
			SourceID:  ev.ID,
		}

	case feed.MethodBroadcastStart, feed.MethodBroadcastStop,
		feed.MethodFanclubJoin, feed.MethodFollow, feed.MethodUnfollow,
		feed.MethodMediaPurchase, feed.MethodRoomSubjectChange,
		feed.MethodUserEnter, feed.MethodUserLeave:
		return Alert{Tier: TierNone, SourceID: ev.ID}

	default:
		c.malformed.Add(1)
		return Alert{Tier: TierNone, SourceID: ev.ID}
	}
}

func (c *Classifier) classifyTip(eventID string, tip *feed.Tip) Alert {
	tokens := tip.Tokens
	if tokens < 0 {
		tokens = 0
	}
	if tokens < c.StandardThreshold {
		return Alert{Tier: TierNone, SourceID: eventID}
	}

	if tokens >= c.ColorThreshold {
		color, ok := ParseColor(tip.Message)
		if !ok {
			color = c.DefaultColor
		}
		return Alert{
			ID:        uuid.NewString(),
			Tier:      TierColor,
			Color:     color,
			Animation: c.ColorAnimation,
			Duration:  c.AlertDuration,
			SourceID:  eventID,
			TipTokens: tokens,
		}
	}

	return Alert{
		ID:        uuid.NewString(),
		Tier:      TierStandard,
		Animation: c.AlertAnimation,
		Duration:  c.scaledDuration(tokens),
		SourceID:  eventID,
		TipTokens: tokens,
	}
}

// scaledDuration lengthens the alert proportionally to the tip size, bounded
// by the configured maximum.
func (c *Classifier) scaledDuration(tokens int) time.Duration {
	d := c.AlertDuration * time.Duration(tokens) / time.Duration(c.StandardThreshold)
	return min(d, c.MaxAlertDuration)
}
