package activity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/pagination"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/activity", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListActivity)
}

// ListActivity answers GET /activity?user_id=&resource=&action= with paging.
func (h *Handler) ListActivity(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		UserID:   c.QueryParam("user_id"),
		Resource: c.QueryParam("resource"),
		Action:   c.QueryParam("action"),
	}
	items, total, err := h.repo.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
