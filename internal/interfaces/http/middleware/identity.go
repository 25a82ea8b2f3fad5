package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/claimswift/backend/internal/infrastructure/auth"
	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// UserIDKey holds the resolved caller in the gin context.
	UserIDKey = "user_id"
	// UserIDHeader names the caller when bearer auth is off.
	UserIDHeader = "X-User-ID"
	// SystemUser is recorded when a request carries no caller identity.
	SystemUser = "SYSTEM"

	authClaimsKey = "auth_claims"
)

// DefaultPublicPaths answer without a token. A trailing slash makes an entry
// match every path below it.
var DefaultPublicPaths = []string{"/health", "/api/v1/payments/health"}

// BearerAuth resolves the caller from an HS256 bearer token and rejects
// requests without a valid one with 401.
type BearerAuth struct {
	tokens *auth.JWTService
	public []string
	log    *zap.Logger
}

// NewBearerAuth uses DefaultPublicPaths when publicPaths is empty.
func NewBearerAuth(tokens *auth.JWTService, log *zap.Logger, publicPaths ...string) *BearerAuth {
	if log == nil {
		log = zap.NewNop()
	}
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	return &BearerAuth{tokens: tokens, public: publicPaths, log: log}
}

// Handler is the gin middleware. X-User-ID is ignored when it is installed.
func (a *BearerAuth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			a.reject(c, auth.ErrInvalidToken)
			return
		}
		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			a.reject(c, err)
			return
		}
		c.Set(authClaimsKey, claims)
		setCaller(c, claims.UserID)
		c.Next()
	}
}

func (a *BearerAuth) isPublic(path string) bool {
	return slices.ContainsFunc(a.public, func(p string) bool {
		if strings.HasSuffix(p, "/") {
			return strings.HasPrefix(path, p)
		}
		return path == p
	})
}

func (a *BearerAuth) reject(c *gin.Context, err error) {
	code, msg := dto.ErrCodeTokenInvalid, "Invalid token"
	if errors.Is(err, auth.ErrExpiredToken) {
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	}
	a.log.Warn("Bearer authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("code", code),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, msg, GetRequestID(c)))
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// HeaderIdentity trusts X-User-ID as the caller. It replaces BearerAuth when
// authentication is disabled.
func HeaderIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
			setCaller(c, id)
		}
		c.Next()
	}
}

func setCaller(c *gin.Context, id string) {
	c.Set(UserIDKey, id)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), id))
}

// AuthClaims returns the validated token claims, or nil without BearerAuth.
func AuthClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(authClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// CallerID returns the resolved caller, or SystemUser.
func CallerID(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return id
	}
	return SystemUser
}
