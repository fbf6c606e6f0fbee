package visit

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/campushealth/clinic/internal/domain/stock"
	"github.com/campushealth/clinic/internal/domain/student"
	"github.com/campushealth/clinic/internal/platform/auth"
	"github.com/campushealth/clinic/pkg/pagination"
)

// StudentResolver resolves a student ID against the campus directory before
// a visit is opened.
type StudentResolver interface {
	GetOrFetch(ctx context.Context, studentID string) (*student.Info, error)
}

type Handler struct {
	svc      *Service
	students StudentResolver
}

func NewHandler(svc *Service, students StudentResolver) *Handler {
	return &Handler{svc: svc, students: students}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reception := api.Group("/clinic/reception", auth.RequireRole(auth.RoleReceptionist))
	reception.POST("/visits", h.Register)
	reception.GET("/visits", h.ListReception)

	nurse := api.Group("/clinic/nurse", auth.RequireRole(auth.RoleNurse))
	nurse.GET("/visits", h.ListNurseQueue)
	nurse.GET("/visits/:id", h.GetDetail)
	nurse.POST("/visits/:id/vitals", h.SubmitVitals)

	doctor := api.Group("/clinic/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/visits", h.ListDoctorQueue)
	doctor.GET("/visits/:id", h.GetDetail)
	doctor.POST("/visits/:id/diagnosis", h.SubmitDiagnosis)

	lab := api.Group("/clinic/lab", auth.RequireRole(auth.RoleLab))
	lab.GET("/visits", h.ListLabQueue)
	lab.GET("/visits/:id", h.GetDetail)
	lab.POST("/visits/:id/results", h.SubmitLabResults)

	pharmacy := api.Group("/clinic/pharmacy", auth.RequireRole(auth.RolePharmacist))
	pharmacy.GET("/visits", h.ListPharmacyQueue)
	pharmacy.GET("/visits/:id", h.GetDetail)
	pharmacy.POST("/visits/:id/dispense", h.Dispense)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/visits", h.ListAll)
	admin.GET("/visits/:id", h.GetDetail)
}

// domainError maps service errors onto HTTP status codes: unknown visit is
// 404, a workflow precondition violation is 409, insufficient stock is 409,
// anything else from input validation is 400.
func domainError(err error) *echo.HTTPError {
	var ite *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	case errors.As(err, &ite):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Register(c echo.Context) error {
	var body struct {
		StudentID string `json:"student_id"`
		Reason    string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	info, err := h.students.GetOrFetch(c.Request().Context(), body.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrUnknownStudent) {
			return echo.NewHTTPError(http.StatusNotFound, "student not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	v, err := h.svc.Register(c.Request().Context(), info.StudentID, body.Reason)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"visit":   v,
		"student": info,
	})
}

func (h *Handler) ListReception(c echo.Context) error {
	pg := pagination.FromContext(c)
	if studentID := c.QueryParam("student_id"); studentID != "" {
		visits, total, err := h.svc.ListByStudent(c.Request().Context(), studentID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
	}
	visits, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) listQueue(c echo.Context, list func(ctx context.Context, limit, offset int) ([]*Visit, int, error)) error {
	pg := pagination.FromContext(c)
	visits, total, err := list(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListNurseQueue(c echo.Context) error {
	return h.listQueue(c, h.svc.ListNurseQueue)
}

func (h *Handler) ListDoctorQueue(c echo.Context) error {
	return h.listQueue(c, h.svc.ListDoctorQueue)
}

func (h *Handler) ListLabQueue(c echo.Context) error {
	return h.listQueue(c, h.svc.ListLabQueue)
}

func (h *Handler) ListPharmacyQueue(c echo.Context) error {
	return h.listQueue(c, h.svc.ListPharmacyQueue)
}

func (h *Handler) ListAll(c echo.Context) error {
	return h.listQueue(c, h.svc.ListAll)
}

func (h *Handler) GetDetail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) SubmitVitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in VitalsInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.SubmitVitals(c.Request().Context(), id, in, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) SubmitDiagnosis(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in DiagnosisInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	doctorID, _ := uuid.Parse(auth.UserIDFromContext(ctx))
	note, err := h.svc.SubmitDiagnosis(ctx, id, in, doctorID, auth.UserNameFromContext(ctx))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) SubmitLabResults(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in LabResultsInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.SubmitLabResults(c.Request().Context(), id, in, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in DispenseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	notes, err := h.svc.Dispense(c.Request().Context(), id, in, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, notes)
}
