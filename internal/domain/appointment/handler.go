package appointment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/pagination"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	all := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	all.GET("/slots", h.SearchSlots)
	all.GET("/slots/:id", h.GetSlot)
	all.POST("/slots/:id/bookings", h.Book)
	all.GET("/bookings/:id", h.GetBooking)
	all.POST("/bookings/:id/cancel", h.CancelBooking)

	staff := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	staff.GET("/slots/:id/bookings", h.ListBookings)
	staff.POST("/slots/:id/complete", h.CompleteSlot)
	staff.POST("/slots/:id/cancel", h.CancelSlot, auth.RequireRole(auth.RoleStaff))
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalID(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func optionalDate(c echo.Context, name string) (string, error) {
	v := c.QueryParam(name)
	if v == "" {
		return "", nil
	}
	d, err := timeofday.ParseDate(v, time.UTC)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return timeofday.DateKey(d), nil
}

func slotFilterFromQuery(c echo.Context) (SlotFilter, error) {
	var (
		f   SlotFilter
		err error
	)
	if f.DoctorID, err = optionalID(c, "doctor_id"); err != nil {
		return f, err
	}
	if f.ClinicID, err = optionalID(c, "clinic_id"); err != nil {
		return f, err
	}
	if f.From, err = optionalDate(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(c, "to"); err != nil {
		return f, err
	}
	f.Status = SlotStatus(c.QueryParam("status"))
	return f, nil
}

// SearchSlots lists slots. available=true keeps only slots that can be
// booked now and ignores status.
func (h *Handler) SearchSlots(c echo.Context) error {
	f, err := slotFilterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		items []*Slot
		total int
	)
	if available, _ := strconv.ParseBool(c.QueryParam("available")); available {
		items, total, err = h.svc.AvailableSlots(ctx, f, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.SearchSlots(ctx, f, pg.Limit, pg.Offset)
	}
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetSlot(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	slot, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) Book(c echo.Context) error {
	slotID, err := parseID(c)
	if err != nil {
		return err
	}
	var b Booking
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b.BookedBy = auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Book(c.Request().Context(), slotID, &b); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c echo.Context) error {
	slotID, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListBookings(c.Request().Context(), slotID)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if items == nil {
		items = []*Booking{}
	}
	return c.JSON(http.StatusOK, items)
}

// ownsBooking lets patients see and cancel only what they booked.
func ownsBooking(c echo.Context, b *Booking) bool {
	ctx := c.Request().Context()
	return auth.HasRole(ctx, auth.RoleStaff, auth.RoleDoctor) || b.BookedBy == auth.UserIDFromContext(ctx)
}

func (h *Handler) GetBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if !ownsBooking(c, b) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if !ownsBooking(c, b) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	b, err = h.svc.CancelBooking(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelSlot(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	slot, err := h.svc.CancelSlot(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) CompleteSlot(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	slot, err := h.svc.CompleteSlot(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, slot)
}
