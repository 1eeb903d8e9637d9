package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-engine/internal/adapters/identity"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
)

const (
	// ContextKeyClaims is the gin context key for storing extracted claims.
	ContextKeyClaims = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
	defaultNameHeader    = "X-User-Name"
)

// Claims are the caller attributes forwarded by the gateway, which has
// already validated the token.
type Claims struct {
	Subject string
	Name    string
	Roles   []string
}

// HasRole checks if the user has the specified role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole checks if the user has any of the specified roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

// User converts the claims into the acting user of the quote services.
func (c *Claims) User() *domain.UserAccount {
	return &domain.UserAccount{ID: c.Subject, Name: c.Name, Roles: c.Roles}
}

// ExtractClaims reads the claims headers. Header names come from cfg when
// set.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader := defaultSubjectHeader
	rolesHeader := defaultRolesHeader
	nameHeader := defaultNameHeader

	if cfg != nil {
		if cfg.SubjectHeader != "" {
			subjectHeader = cfg.SubjectHeader
		}

		if cfg.RolesHeader != "" {
			rolesHeader = cfg.RolesHeader
		}

		if cfg.NameHeader != "" {
			nameHeader = cfg.NameHeader
		}
	}

	claims := &Claims{
		Subject: strings.TrimSpace(c.GetHeader(subjectHeader)),
		Name:    strings.TrimSpace(c.GetHeader(nameHeader)),
	}

	if roles := c.GetHeader(rolesHeader); roles != "" {
		claims.Roles = parseCommaSeparated(roles)
	}

	return claims
}

// GetClaims retrieves claims from the gin context.
// Returns nil if claims are not present.
func GetClaims(c *gin.Context) *Claims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if cl, ok := claims.(*Claims); ok {
			return cl
		}
	}

	return nil
}

// Identity stores the caller's claims and, when a subject is present, the
// acting user in the request context. Anonymous requests pass through.
func Identity(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		attachClaims(c, ExtractClaims(c, cfg))
		c.Next()
	}
}

// RequireAuth is Identity that rejects requests without a subject.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ExtractClaims(c, cfg)

		if claims.Subject == "" {
			abortWithForbidden(c, "authentication required")
			return
		}

		attachClaims(c, claims)
		c.Next()
	}
}

// RequireAnyRole rejects callers holding none of roles.
func RequireAnyRole(cfg *config.AuthConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			claims = ExtractClaims(c, cfg)
			attachClaims(c, claims)
		}

		if !claims.HasAnyRole(roles...) {
			abortWithForbidden(c, "insufficient permissions: one of roles ["+strings.Join(roles, ", ")+"] required")
			return
		}

		c.Next()
	}
}

func attachClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextKeyClaims, claims)

	if claims.Subject != "" {
		ctx := identity.WithUser(c.Request.Context(), claims.User())
		c.Request = c.Request.WithContext(logging.WithUserID(ctx, claims.Subject))
	}
}

func abortWithForbidden(c *gin.Context, message string) {
	errResp := dto.NewErrorResponse(dto.ErrorCodeForbidden, message)
	errResp.TraceID = dto.GetTraceID(c)

	c.AbortWithStatusJSON(http.StatusForbidden, errResp)
}

// parseCommaSeparated splits a comma-separated string into trimmed values.
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
