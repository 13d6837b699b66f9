package event

// Client-originated payloads. Validated at the channel boundary before any
// registry mutation happens.

// RoomPayload accompanies JOIN_CHAT, TYPING_START and TYPING_STOP.
type RoomPayload struct {
	ChatID string `json:"chatId" validate:"required"`
}

// TypingPayload is the re-broadcast form of a typing event, enriched with
// the sender so other members can attribute the indicator.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ConnectedPayload confirms a successful handshake to the client.
type ConnectedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// ErrorPayload carries a human-readable failure description.
type ErrorPayload struct {
	Message string `json:"message"`
}
