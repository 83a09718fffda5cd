package store

// Role indicates who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	UID       string
	SessionID string
	Role      Role
	Content   string
	CreatedTs int64
	ID        int32
}

type FindChatMessage struct {
	ID        *int32
	SessionID *string
	Limit     *int
}

type DeleteChatMessage struct {
	ID        *int32
	SessionID *string
}
