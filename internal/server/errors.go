package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/resumeforge/resumeforge/internal/errors"
)

// routedMethods are the methods the API serves on any route.
var routedMethods = []string{http.MethodGet, http.MethodPost}

// HandleError writes err as the API envelope for handlers in this package.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	env := apperrors.NewNotFoundError("The requested resource was not found")
	env = env.WithDetails(map[string]interface{}{"path": r.URL.Path})
	HandleError(w, r, env)
}

// methodNotAllowed answers a known path hit with the wrong method, listing
// the methods the route does serve in Allow.
func methodNotAllowed(mux *chi.Mux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed := allowedMethods(mux, r.URL.Path)
		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
		}
		env := apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource")
		env = env.WithDetails(map[string]interface{}{
			"method":  r.Method,
			"allowed": allowed,
		})
		HandleError(w, r, env)
	}
}

func allowedMethods(mux *chi.Mux, path string) []string {
	var allowed []string
	for _, m := range routedMethods {
		if mux.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}
