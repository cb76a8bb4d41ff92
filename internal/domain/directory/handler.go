package directory

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hoseinshahbazi68/nobat-sub002/internal/platform/auth"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Directory reads are open to every signed-in role, patients included.
	read := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	read.GET("/clinics", h.ListClinics)
	read.GET("/clinics/:id", h.GetClinic)
	read.GET("/doctors", h.ListDoctors)
	read.GET("/doctors/:id", h.GetDoctor)
	read.GET("/services", h.ListMedicalServices)
	read.GET("/services/:id", h.GetMedicalService)
	read.GET("/insurances", h.ListInsurances)
	read.GET("/insurances/:id", h.GetInsurance)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/clinics", h.CreateClinic)
	write.PUT("/clinics/:id", h.UpdateClinic)
	write.DELETE("/clinics/:id", h.DeleteClinic)
	write.POST("/doctors", h.CreateDoctor)
	write.PUT("/doctors/:id", h.UpdateDoctor)
	write.DELETE("/doctors/:id", h.DeactivateDoctor)
	write.POST("/services", h.CreateMedicalService)
	write.PUT("/services/:id", h.UpdateMedicalService)
	write.DELETE("/services/:id", h.DeleteMedicalService)
	write.POST("/insurances", h.CreateInsurance)
	write.PUT("/insurances/:id", h.UpdateInsurance)
	write.DELETE("/insurances/:id", h.DeleteInsurance)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func filterFromQuery(c echo.Context) ListFilter {
	f := ListFilter{Query: c.QueryParam("q")}
	if v, err := strconv.ParseBool(c.QueryParam("active")); err == nil {
		f.ActiveOnly = v
	}
	return f
}

// -- Clinic Handlers --

func (h *Handler) CreateClinic(c echo.Context) error {
	var cl Clinic
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateClinic(c.Request().Context(), &cl); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cl, err := h.svc.GetClinic(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListClinics(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListClinics(c.Request().Context(), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cl, err := h.svc.GetClinic(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if err := c.Bind(cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cl.ID = id
	if err := h.svc.UpdateClinic(c.Request().Context(), cl); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) DeleteClinic(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteClinic(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), &d); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if err := c.Bind(d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDoctor(c.Request().Context(), d); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeactivateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateDoctor(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medical Service Handlers --

func (h *Handler) CreateMedicalService(c echo.Context) error {
	var ms MedicalService
	if err := c.Bind(&ms); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedicalService(c.Request().Context(), &ms); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, ms)
}

func (h *Handler) GetMedicalService(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ms, err := h.svc.GetMedicalService(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *Handler) ListMedicalServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicalServices(c.Request().Context(), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMedicalService(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ms, err := h.svc.GetMedicalService(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if err := c.Bind(ms); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ms.ID = id
	if err := h.svc.UpdateMedicalService(c.Request().Context(), ms); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *Handler) DeleteMedicalService(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedicalService(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Insurance Handlers --

func (h *Handler) CreateInsurance(c echo.Context) error {
	var ins Insurance
	if err := c.Bind(&ins); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateInsurance(c.Request().Context(), &ins); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, ins)
}

func (h *Handler) GetInsurance(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ins, err := h.svc.GetInsurance(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ins)
}

func (h *Handler) ListInsurances(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListInsurances(c.Request().Context(), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateInsurance(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ins, err := h.svc.GetInsurance(c.Request().Context(), id)
	if err != nil {
		return apperrors.ToHTTP(err)
	}
	if err := c.Bind(ins); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ins.ID = id
	if err := h.svc.UpdateInsurance(c.Request().Context(), ins); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ins)
}

func (h *Handler) DeleteInsurance(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInsurance(c.Request().Context(), id); err != nil {
		return apperrors.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
