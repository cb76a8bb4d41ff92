package chat

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/chat", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	g.POST("/messages", h.SendMessage)
	g.GET("/messages", h.PollMessages)
	g.POST("/messages/:id/read", h.MarkRead)
	g.GET("/unread", h.UnreadCount)
}

func currentUser(c echo.Context) (string, error) {
	user := auth.UserIDFromContext(c.Request().Context())
	if user == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return user, nil
}

func (h *Handler) SendMessage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var m Message
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Send(c.Request().Context(), user, &m); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

// PollMessages answers GET /chat/messages?peer=<user>&after=<id>&limit=<n>.
func (h *Handler) PollMessages(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var after int64
	if v := c.QueryParam("after"); v != "" {
		if after, err = strconv.ParseInt(v, 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid after")
		}
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	items, err := h.svc.Poll(c.Request().Context(), user, c.QueryParam("peer"), after, limit)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if items == nil {
		items = []*Message{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkRead(c.Request().Context(), user, id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.svc.UnreadCount(c.Request().Context(), user)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": n})
}
