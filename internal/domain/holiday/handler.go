package holiday

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type Handler struct {
	svc *Service
	loc *time.Location
}

func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	read.GET("/holidays", h.ListHolidays)
	read.GET("/holidays/:id", h.GetHoliday)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/holidays", h.CreateHoliday)
	write.PUT("/holidays/:id", h.UpdateHoliday)
	write.DELETE("/holidays/:id", h.DeleteHoliday)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateHoliday(c echo.Context) error {
	var hol Holiday
	if err := c.Bind(&hol); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateHoliday(c.Request().Context(), &hol); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, hol)
}

func (h *Handler) GetHoliday(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	hol, err := h.svc.GetHoliday(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, hol)
}

// ListHolidays defaults to the current calendar year when from/to are
// omitted.
func (h *Handler) ListHolidays(c echo.Context) error {
	now := time.Now().In(h.loc)
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, h.loc)
	to := from.AddDate(1, 0, 0)

	var err error
	if v := c.QueryParam("from"); v != "" {
		if from, err = timeofday.ParseDate(v, h.loc); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = timeofday.ParseDate(v, h.loc); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	items, err := h.svc.ListBetween(c.Request().Context(), from, to)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if items == nil {
		items = []*Holiday{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateHoliday(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	hol, err := h.svc.GetHoliday(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if err := c.Bind(hol); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hol.ID = id
	if err := h.svc.UpdateHoliday(c.Request().Context(), hol); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, hol)
}

func (h *Handler) DeleteHoliday(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteHoliday(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
