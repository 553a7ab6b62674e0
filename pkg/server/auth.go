package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/access"
)

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware verifies the bearer token on every API route except health
// and stores the caller's identity on the request context
func newAuthMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	healthPath := path.Join(BasePath, "health")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, BasePath+"/") || req.URL.Path == healthPath {
				next.ServeHTTP(w, req)
				return
			}

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			if authz == "" {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required"))
				return
			}

			token, ok := bearerToken(authz)
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials"))
				return
			}

			identity, err := access.VerifyToken(token, secret)
			if err != nil {
				logger.Debug("Rejected token", zap.String("path", req.URL.Path), zap.Error(err))
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials"))
				return
			}

			next.ServeHTTP(w, req.WithContext(access.WithIdentity(req.Context(), identity)))
		})
	}
}

// caller returns the identity the auth middleware placed on ctx
func caller(ctx context.Context) (access.Identity, huma.StatusError) {
	identity, ok := access.IdentityFromContext(ctx)
	if !ok {
		return access.Identity{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return identity, nil
}

// authorize checks the caller on ctx against the tier required for action
func (h *handlers) authorize(ctx context.Context, action access.Action) huma.StatusError {
	identity, authErr := caller(ctx)
	if authErr != nil {
		return authErr
	}
	if err := access.Require(identity, action); err != nil {
		h.logger.Info("Permission denied",
			zap.String("user_id", identity.UserID),
			zap.String("action", string(action)),
			zap.Stringer("tier", identity.Tier))
		return h.handleError(string(action), err)
	}
	return nil
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}
