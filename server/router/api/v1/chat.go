package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/triagesense/store"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatMessage struct {
	UID       string `json:"uid"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

type ChatResponse struct {
	SessionID string      `json:"session_id"`
	Message   ChatMessage `json:"message"`
	Reply     ChatMessage `json:"reply"`
}

// CreateChatMessage handles one turn of the general medicine chat: persist
// the user message, generate a reply, persist and return it.
func (s *APIV1Service) CreateChatMessage(c echo.Context) error {
	if s.Router == nil {
		return errAIDisabled()
	}

	session := s.sessionID(c)

	request := &ChatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(request.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()
	userMessage, err := s.Store.CreateChatMessage(ctx, &store.ChatMessage{
		SessionID: session,
		Role:      store.RoleUser,
		Content:   request.Message,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save message")
	}

	reply := s.Router.Chat(ctx, request.Message)
	assistantMessage, err := s.Store.CreateChatMessage(ctx, &store.ChatMessage{
		SessionID: session,
		Role:      store.RoleAssistant,
		Content:   reply,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save reply")
	}

	return c.JSON(http.StatusOK, &ChatResponse{
		SessionID: session,
		Message:   toChatMessage(userMessage),
		Reply:     toChatMessage(assistantMessage),
	})
}

// ListChatMessages returns the session's chat transcript in order.
func (s *APIV1Service) ListChatMessages(c echo.Context) error {
	session := s.sessionID(c)

	messages, err := s.Store.ListChatMessages(c.Request().Context(), &store.FindChatMessage{SessionID: &session})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	list := make([]ChatMessage, 0, len(messages))
	for _, message := range messages {
		list = append(list, toChatMessage(message))
	}
	return c.JSON(http.StatusOK, list)
}

// ClearChatMessages deletes the session's chat transcript.
func (s *APIV1Service) ClearChatMessages(c echo.Context) error {
	session := s.sessionID(c)

	deleted, err := s.Store.DeleteChatMessages(c.Request().Context(), &store.DeleteChatMessage{SessionID: &session})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear messages")
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

func toChatMessage(message *store.ChatMessage) ChatMessage {
	return ChatMessage{
		UID:       message.UID,
		Role:      string(message.Role),
		Content:   message.Content,
		CreatedTs: message.CreatedTs,
	}
}
