package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/auth"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := jwt.ActorFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		if !actor.IsAdmin {
			response.HandleError(w, auth.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
