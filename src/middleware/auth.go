package middleware

import (
	"errors"
	"strings"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"

	localUserID = "userID"
	localRole   = "role"
)

// Claims carries the role next to the registered claims; the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens. Tokens are issued elsewhere.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) Verify(raw string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("no signing secret configured")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method " + t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Sign issues a token; used by tests and local tooling.
func (a *Authenticator) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearer(c)
		if !ok {
			return apperror.Auth(apperror.MsgUnauthorized)
		}
		if err := a.authenticate(c, raw); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent. A bad token is
// still rejected.
func (a *Authenticator) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, ok := bearer(c); ok {
			if err := a.authenticate(c, raw); err != nil {
				return err
			}
		}
		return c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Role(c) != role {
			return apperror.Forbidden(apperror.MsgAccessDenied)
		}
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx, raw string) error {
	claims, err := a.Verify(raw)
	if err != nil {
		return &apperror.Error{Kind: apperror.KindAuth, Message: apperror.MsgInvalidToken, Err: err}
	}
	c.Locals(localUserID, claims.Subject)
	c.Locals(localRole, strings.ToUpper(claims.Role))
	return nil
}

func bearer(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}
