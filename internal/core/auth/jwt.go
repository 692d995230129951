package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const ctxActorKey = "actor"

// Claims is the access token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for actor valid for ttl.
func GenerateToken(secret string, actor Actor, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: actor.ID,
		Email:  email,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies tokenStr and returns the actor it names.
func ParseToken(secret, tokenStr string) (Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Actor{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Actor{}, errors.New("invalid token claims")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return Actor{}, fmt.Errorf("token carries no usable identity (role %q)", claims.Role)
	}
	return Actor{ID: claims.UserID, Role: claims.Role}, nil
}

// JWTMiddleware authenticates the bearer token and stores the actor in the request locals.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		actor, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(ctxActorKey, actor)
		return c.Next()
	}
}

// RequireRole rejects requests whose actor is not in roles.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated actor")
		}
		if !actor.HasRole(roles...) {
			return fiber.NewError(fiber.StatusForbidden, "role not permitted for this operation")
		}
		return c.Next()
	}
}

// ActorFrom returns the actor stored by JWTMiddleware.
func ActorFrom(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(ctxActorKey).(Actor)
	return actor, ok
}

// WithActor stores actor in the request locals. Used by tests and internal routes.
func WithActor(actor Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ctxActorKey, actor)
		return c.Next()
	}
}
