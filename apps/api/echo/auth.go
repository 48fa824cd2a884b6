package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"

	defaultTokenTTL = 8 * time.Hour
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
)

// Claims represents the session claims issued by the identity provider and transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	SchoolID string   `json:"school_id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// User returns the caller vouched for by the claims.
func (c Claims) User() user.User {
	return user.User{
		ID:       c.Subject,
		SchoolID: c.SchoolID,
		Name:     c.Name,
		Email:    c.Email,
		Roles:    c.Roles,
	}
}

// GetUserClaims returns the session claims of usr, valid for ttl (8 hours when zero).
func GetUserClaims(usr user.User, conf *core.Config, ttl time.Duration) *Claims {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.Server.JWTIssuer,
			Subject:   usr.ID,
			Audience:  conf.Server.JWTAudience,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		SchoolID: usr.SchoolID,
		Name:     usr.Name,
		Email:    usr.Email,
		Roles:    usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func newJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// sessionMiddleware turns verified claims into the caller handed to the core.
// It must run after the JWT middleware.
func sessionMiddleware(conf *core.Config, validate *core.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.VerifyIssuer(conf.Server.JWTIssuer, true) || !claims.VerifyAudience(conf.Server.JWTAudience, true) {
				return errInvalidToken
			}

			usr := claims.User()
			if err := usr.Validate(validate); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session").SetInternal(err)
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
