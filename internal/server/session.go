package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"socialnest/internal/cache"
	"socialnest/internal/middleware"
	"socialnest/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie  = "session"
	tokenIssuer    = "socialnest-api"
	tokenAudience  = "socialnest-client"
	localsUserID   = "userID"
	localsTokenID  = "tokenID"
	localsTokenExp = "tokenExp"
)

// sessionClaims is what a parsed session token carries.
type sessionClaims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

func (s *Server) sessionTTL() time.Duration {
	return time.Duration(s.config.SessionTTLHours) * time.Hour
}

// generateToken creates a signed session token for userID.
func (s *Server) generateToken(userID uint, username string) (string, time.Time, error) {
	if s.config.JWTSecret == "" {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := time.Now()
	exp := now.Add(s.sessionTTL())
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	return signed, exp, err
}

// parseToken validates tokenString and extracts its session claims.
func (s *Server) parseToken(tokenString string) (*sessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("invalid expiration claim")
	}
	jti, _ := claims["jti"].(string)

	return &sessionClaims{UserID: uint(userID), ID: jti, ExpiresAt: exp.Time}, nil
}

// tokenFromRequest reads the session from the Authorization header or the
// session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies(sessionCookie)
}

// setSessionCookie binds token to the browser session.
func (s *Server) setSessionCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return models.RespondWithAppError(c, models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithAppError(c, models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.ID != "" {
			revoked, err := cache.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "revocation check failed", "error", err)
			}
			if revoked {
				return models.RespondWithAppError(c, models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals(localsUserID, claims.UserID)
		c.Locals(localsTokenID, claims.ID)
		c.Locals(localsTokenExp, claims.ExpiresAt)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.store.Users().GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if user.Role != models.RoleAdmin {
			return models.RespondWithAppError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// optionalUserID returns the session user when a valid token is present.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return 0
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return 0
	}
	if revoked, _ := cache.IsRevoked(c.UserContext(), claims.ID); revoked {
		return 0
	}
	return claims.UserID
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localsUserID).(uint)
	return id
}
