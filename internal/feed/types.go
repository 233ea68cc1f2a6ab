package feed

// Event method names delivered by the events API.
const (
	MethodBroadcastStart    = "broadcastStart"
	MethodBroadcastStop     = "broadcastStop"
	MethodChatMessage       = "chatMessage"
	MethodFanclubJoin       = "fanclubJoin"
	MethodFollow            = "follow"
	MethodMediaPurchase     = "mediaPurchase"
	MethodPrivateMessage    = "privateMessage"
	MethodRoomSubjectChange = "roomSubjectChange"
	MethodTip               = "tip"
	MethodUnfollow          = "unfollow"
	MethodUserEnter         = "userEnter"
	MethodUserLeave         = "userLeave"
)

// FeedResponse is one page of the long-poll events endpoint. NextURL is the
// cursor for the following request.
type FeedResponse struct {
	Events  []Event `json:"events"`
	NextURL string  `json:"nextUrl"`
}

// Event is a single raw feed record. Method discriminates the kind; the
// per-kind payloads under Object are optional pointers.
type Event struct {
	Method string       `json:"method"`
	Object *EventObject `json:"object,omitempty"`
	ID     string       `json:"id"`
}

// EventObject holds the kind-specific payloads of an event.
type EventObject struct {
	Broadcaster string       `json:"broadcaster,omitempty"`
	User        *User        `json:"user,omitempty"`
	Tip         *Tip         `json:"tip,omitempty"`
	Message     *ChatMessage `json:"message,omitempty"`
	Subject     *Subject     `json:"subject,omitempty"`
}

// User identifies the account that triggered the event.
type User struct {
	Username  string `json:"username"`
	InFanclub bool   `json:"inFanclub,omitempty"`
	IsMod     bool   `json:"isMod,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// Tip carries the token payment attached to a tip event.
type Tip struct {
	Tokens  int    `json:"tokens"`
	Message string `json:"message,omitempty"`
	IsAnon  bool   `json:"isAnon,omitempty"`
}

// ChatMessage carries the text of a chat or private message event.
type ChatMessage struct {
	Message string `json:"message"`
	Color   string `json:"color,omitempty"`
	Font    string `json:"font,omitempty"`
}

// Subject carries a room subject change.
type Subject struct {
	Subject string `json:"subject"`
}
