// Package auth provides the bearer-token role gate for protected routes.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rentdesk/internal/common/config"
	"rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
)

type contextKey string

const (
	subjectContextKey contextKey = "auth.subject"
	roleContextKey    contextKey = "auth.role"
)

// Gate inspects bearer-token claims and admits requests whose role claim is
// on the allow-list. By default the token signature is NOT verified; the
// claims are trusted as-is. Supply WithKeyfunc to enable verification.
type Gate struct {
	roleClaim    string
	subjectClaim string
	parser       *jwt.Parser
	keyfunc      jwt.Keyfunc
	logger       logger.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithKeyfunc enables cryptographic signature verification of inbound tokens.
func WithKeyfunc(fn jwt.Keyfunc) Option {
	return func(g *Gate) {
		g.keyfunc = fn
	}
}

// NewGate creates the authorization gate.
func NewGate(cfg config.AuthConfig, log logger.Logger, opts ...Option) *Gate {
	g := &Gate{
		roleClaim:    cfg.RoleClaim,
		subjectClaim: cfg.SubjectClaim,
		parser:       jwt.NewParser(),
		logger:       log.WithFields(map[string]interface{}{"component": "auth-gate"}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require returns middleware that admits only callers whose role claim
// matches one of allowedRoles, compared case-insensitively.
func (g *Gate) Require(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				errors.WriteError(w, errors.NewUnauthenticatedError("missing Authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				errors.WriteError(w, errors.NewUnauthenticatedError("Authorization header is not a bearer token"))
				return
			}

			claims, err := g.decode(parts[1])
			if err != nil {
				g.logger.Warn("token decode failed", map[string]interface{}{
					"path":  r.URL.Path,
					"error": err.Error(),
				})
				errors.WriteError(w, errors.NewMalformedCredentialError(err))
				return
			}

			role, _ := claims[g.roleClaim].(string)
			if !roleAllowed(role, allowedRoles) {
				g.logger.Warn("role not permitted", map[string]interface{}{
					"path": r.URL.Path,
					"role": role,
				})
				errors.WriteError(w, errors.NewForbiddenError(role))
				return
			}

			subject, _ := claims[g.subjectClaim].(string)

			ctx := context.WithValue(r.Context(), subjectContextKey, subject)
			ctx = context.WithValue(ctx, roleContextKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// decode extracts the claims. Without a keyfunc the token is parsed
// unverified, matching the upstream identity setup where the API trusts the
// gateway-forwarded token.
func (g *Gate) decode(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	if g.keyfunc != nil {
		token, err := g.parser.ParseWithClaims(tokenString, claims, g.keyfunc)
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return claims, nil
	}

	if _, _, err := g.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(role, a) {
			return true
		}
	}
	return false
}

// SubjectFromContext returns the authenticated subject id, if any.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectContextKey).(string)
	return subject
}

// RoleFromContext returns the authenticated role, if any.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey).(string)
	return role
}
