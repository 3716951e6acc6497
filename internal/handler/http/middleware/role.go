package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
)

// EmployeeOnly requires an account linked to an employee record. Admins
// without one cannot use the self-service routes.
func EmployeeOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := jwt.ActorFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if _, ok := actor.Employee(); !ok {
			response.HandleError(w, auth.ErrEmployeeAccountNeeded)
			return
		}

		next.ServeHTTP(w, r)
	})
}
