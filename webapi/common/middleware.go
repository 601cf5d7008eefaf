package common

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/codepay/pkg/config"
	"github.com/amirasaad/codepay/pkg/domain/audit"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const tokenLocal = "operator"

// JwtProtected guards operator routes with an HS256 bearer token.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	secret := ""
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(secret)},
		ContextKey:   tokenLocal,
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) ||
		strings.EqualFold(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		return ProblemDetailsJSON(c, "Bad Request", err, "Missing or malformed JWT", fiber.StatusBadRequest)
	}
	return ProblemDetailsJSON(c, "Unauthorized", err, "Invalid or expired JWT", fiber.StatusUnauthorized)
}

// OperatorID returns the subject of the verified token, if any.
func OperatorID(c *fiber.Ctx) string {
	token, ok := c.Locals(tokenLocal).(*jwt.Token)
	if !ok {
		return ""
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// IssueOperatorToken signs a token for subject valid for expiry.
func IssueOperatorToken(cfg *config.Jwt, subject string, now time.Time) (string, error) {
	if cfg == nil || cfg.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// RequestMeta copies the caller's address and user agent into the request
// context so audit records can name them.
func RequestMeta() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := audit.WithRequestMeta(c.UserContext(), audit.RequestMeta{
			IP:        ClientIP(c),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// ClientIP prefers X-Forwarded-For, then X-Real-IP, then the socket address.
func ClientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get(fiber.HeaderXForwardedFor); forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
