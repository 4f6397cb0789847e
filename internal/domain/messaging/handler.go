package messaging

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepoint/portal/internal/platform/auth"
	"github.com/carepoint/portal/pkg/apperror"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/conversations", h.StartConversation)
	api.GET("/conversations", h.ListConversations)
	// unread-counts before :id so echo does not capture it as a param
	api.GET("/conversations/unread-counts", h.GetUnreadCounts)
	api.GET("/conversations/:id/messages", h.ListMessages)
	api.POST("/conversations/:id/messages", h.SendMessage)
	api.POST("/conversations/:id/read", h.MarkRead)
}

type startConversationRequest struct {
	OtherUserID string `json:"other_user_id"`
}

func (h *Handler) StartConversation(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	otherID, err := uuid.Parse(req.OtherUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid other_user_id")
	}
	conv, err := h.svc.StartOrGetConversation(c.Request().Context(), callerID, otherID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) ListConversations(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	convs, err := h.svc.ListConversations(c.Request().Context(), callerID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": convs})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), callerID, convID, req.Content)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), callerID, convID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": msgs})
}

func (h *Handler) MarkRead(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	ids, err := h.svc.MarkConversationRead(c.Request().Context(), callerID, convID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"read_message_ids": ids})
}

func (h *Handler) GetUnreadCounts(c echo.Context) error {
	callerID, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperror.ToHTTP(err)
	}
	counts, err := h.svc.GetUnreadCounts(c.Request().Context(), callerID)
	if err != nil {
		return apperror.ToHTTP(err)
	}
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[id.String()] = n
	}
	return c.JSON(http.StatusOK, map[string]any{"unread_counts": out})
}
