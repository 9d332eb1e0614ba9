package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Roles recognised by the circulation API.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

const (
	ctxKeyUserID   = "userID"
	ctxKeyUserRole = "userRole"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	// DemoUser is the identity assumed when header mode receives no user.
	DemoUser = "demo-user"
)

// Claims is the JWT payload accepted by Identity.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityOptions selects how callers are identified.
//
// With a JWTSecret every request must carry "Authorization: Bearer <token>"
// signed with HMAC. Without one, the X-User-ID and X-User-Role headers are
// trusted as-is, which is only suitable for local demos.
type IdentityOptions struct {
	JWTSecret string
}

// Identity stores the caller's user id and role in the Gin context. In token
// mode, a missing or invalid token is rejected with 401.
func Identity(opts IdentityOptions) gin.HandlerFunc {
	secret := []byte(opts.JWTSecret)
	if len(secret) == 0 {
		log.Warn().
			Str("header", headerUserRole).
			Msg("JWT_SECRET is not set: trusting identity headers, any caller can claim the staff role")
	}
	return func(c *gin.Context) {
		if len(secret) == 0 {
			uid := strings.TrimSpace(c.GetHeader(headerUserID))
			if uid == "" {
				uid = DemoUser
			}
			setIdentity(c, uid, c.GetHeader(headerUserRole))
			c.Next()
			return
		}

		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "bearer token required")
			return
		}
		claims, err := ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		setIdentity(c, claims.UserID, claims.Role)
		c.Next()
	}
}

// RequireStaff rejects callers whose role is neither staff nor admin.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			abortJSON(c, http.StatusForbidden, "forbidden", "staff role required")
			return
		}
		c.Next()
	}
}

// UserID returns the caller id set by Identity, or "" when absent.
func UserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// Role returns the caller role set by Identity, defaulting to member.
func Role(c *gin.Context) string {
	if r := c.GetString(ctxKeyUserRole); r != "" {
		return r
	}
	return RoleMember
}

// IsStaff reports whether the caller may use staff endpoints.
func IsStaff(c *gin.Context) bool {
	switch Role(c) {
	case RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret []byte, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   normalizeRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates tokenString and returns its claims. Only HMAC
// signatures are accepted and the user id must be present.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, userID, role string) {
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyUserRole, normalizeRole(role))
}

func normalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case RoleStaff, RoleAdmin:
		return r
	default:
		return RoleMember
	}
}

// abortJSON stops the chain with the shared error envelope shape.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
