package handlers

import (
	"context"
	"net/http"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// Authenticator gates protected routes behind access-credential validation and
// attaches the resolved account to the request context.
type Authenticator struct {
	Sessions SessionManager
}

// Require wraps a handler so it only runs for requests carrying a valid
// access credential.
func (a Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		if a.Sessions == nil {
			logger.Error("session manager unavailable")
			respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
			return
		}

		token := accessTokenFrom(r)
		if token == "" {
			respondError(ctx, w, http.StatusUnauthorized, "access token not found")
			return
		}

		user, err := a.Sessions.Validate(ctx, token)
		if err != nil {
			logger.Warn("access token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r.WithContext(withCurrentUser(ctx, user)))
	}
}

func withCurrentUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// currentUser returns the account the Authenticator attached to the context.
func currentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(currentUserKey).(models.User)
	return user, ok && user.ID != ""
}
