package schedule

import (
	"net/http"

	"github.com/google/uuid"
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
	read := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	read.GET("/doctors/:id/schedule-templates", h.ListByDoctor)
	read.GET("/schedule-templates/:id", h.GetTemplate)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/schedule-templates", h.CreateTemplate)
	write.PUT("/schedule-templates/:id", h.UpdateTemplate)
	write.DELETE("/schedule-templates/:id", h.DeleteTemplate)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateTemplate(c echo.Context) error {
	var t Template
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTemplate(c.Request().Context(), &t); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if items == nil {
		items = []*Template{}
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateTemplate applies the body onto the stored template. The owning
// doctor cannot change; create a new template instead.
func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	doctorID := t.DoctorID
	if err := c.Bind(t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.ID, t.DoctorID = id, doctorID
	if err := h.svc.UpdateTemplate(c.Request().Context(), t); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTemplate(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
