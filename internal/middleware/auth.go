// file: internal/middleware/auth.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"skillforge/internal/contextutils"
	"skillforge/internal/response"
)

// AuthMiddleware authenticates requests with bearer tokens.
type AuthMiddleware struct {
	secret  []byte
	builder *response.Builder
	logger  *zap.Logger
}

// NewAuthMiddleware creates the JWT authentication middleware.
func NewAuthMiddleware(secret string, builder *response.Builder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret:  []byte(secret),
		builder: builder,
		logger:  logger,
	}
}

// RequireAuth rejects requests without a valid bearer token and exposes the
// authenticated user ID on the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticate(r)
		if err != nil {
			m.logger.Debug("authentication failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			m.builder.Unauthorized(w, r, "authentication required")
			return
		}

		ctx := contextutils.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (int64, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, fmt.Errorf("malformed authorization header")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid subject claim %q", claims.Subject)
	}
	return userID, nil
}
