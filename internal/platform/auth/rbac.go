package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Clinical roles. Admin passes every role check.
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleNurse        = "nurse"
	RoleDoctor       = "doctor"
	RoleLab          = "lab"
	RolePharmacist   = "pharmacist"
	RoleStockManager = "stockmanager"
)

// ValidRole reports whether the given role is a known clinical role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleReceptionist, RoleNurse, RoleDoctor, RoleLab, RolePharmacist, RoleStockManager:
		return true
	}
	return false
}

// RequireRole returns middleware that checks if the user holds one of the
// specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			if userRole == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
