// Package middleware provides authentication, logging, tracing and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"tether/internal/config"
	"tether/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenIssuer is the only issuer accepted on bearer tokens.
	TokenIssuer = "tether-api"
	// TokenAudience is the only audience accepted on bearer tokens.
	TokenAudience = "tether-client"
)

var (
	ErrMissingToken  = errors.New("authorization required")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrTokenRevoked  = errors.New("token has been revoked")
)

// TokenClaims are the claims tether reads from a verified token.
type TokenClaims struct {
	UserID uint
	JTI    string
}

// TokenVerifier validates HS256 bearer tokens and checks the Redis revocation list.
type TokenVerifier struct {
	secret []byte
	redis  *redis.Client
}

// NewTokenVerifier builds a verifier for cfg.JWTSecret. rdb may be nil, in which case
// revocation is not checked.
func NewTokenVerifier(cfg *config.Config, rdb *redis.Client) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.JWTSecret), redis: rdb}
}

// Verify parses tokenString and returns its claims.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidClaims
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidClaims
	}

	out := &TokenClaims{UserID: uint(userID)}
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		out.JTI = jti
		if v.redis != nil {
			n, err := v.redis.Exists(ctx, "blacklist:"+jti).Result()
			if err == nil && n > 0 {
				return nil, ErrTokenRevoked
			}
		}
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id in c.Locals("userID"). When allowQuery is true the token may
// also be passed as ?token=, which browsers need for websocket upgrades.
func AuthRequired(v *TokenVerifier, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := BearerToken(c)
		if tokenString == "" && allowQuery {
			tokenString = c.Query("token")
		}

		claims, err := v.Verify(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(capitalize(err.Error())))
		}

		c.Locals("userID", claims.UserID)
		ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
