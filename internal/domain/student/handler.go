package student

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campushealth/clinic/internal/platform/auth"
	"github.com/campushealth/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor))
	g.GET("/clinic/reception/students/:student_id", h.GetStudent)
	g.GET("/clinic/reception/students", h.ListStudents)
}

func (h *Handler) GetStudent(c echo.Context) error {
	info, err := h.svc.GetOrFetch(c.Request().Context(), c.Param("student_id"))
	if err != nil {
		if errors.Is(err, ErrUnknownStudent) {
			return echo.NewHTTPError(http.StatusNotFound, "student not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) ListStudents(c echo.Context) error {
	pg := pagination.FromContext(c)
	infos, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(infos, total, pg.Limit, pg.Offset))
}
