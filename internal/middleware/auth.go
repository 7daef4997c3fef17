package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tutoring-service/internal/logging"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
)

const (
	UserIDKey     = "userID"
	AuthUserIDKey = "authUserID"
	ProfileKey    = "profile"
)

var (
	ErrMissingToken  = errors.New("missing authorization")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoSecret      = errors.New("token verification not configured")
	ErrNoProfileUser = errors.New("no profile for user")
)

// TokenVerifier checks HS256 bearer tokens issued by the auth provider.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify returns the token subject, the auth user id.
func (v *TokenVerifier) Verify(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNoSecret
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Authenticator resolves bearer tokens to profiles.
type Authenticator struct {
	verifier *TokenVerifier
	profiles repositories.ProfileRepository
}

func NewAuthenticator(verifier *TokenVerifier, profiles repositories.ProfileRepository) *Authenticator {
	return &Authenticator{verifier: verifier, profiles: profiles}
}

// Authenticate verifies token and loads the caller's profile.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (models.Profile, error) {
	if token == "" {
		return models.Profile{}, ErrMissingToken
	}
	userID, err := a.verifier.Verify(token)
	if err != nil {
		return models.Profile{}, err
	}
	profile, err := a.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return models.Profile{}, ErrNoProfileUser
	}
	if err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// AuthMiddleware validates the Authorization header and stores the caller's
// profile id under "userID" and the profile under "profile".
func AuthMiddleware(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		token, ok := BearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		profile, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, ErrNoProfileUser):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "profile not found"})
			return
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrNoSecret):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		case err != nil:
			logging.Error().Err(err).Msg("profile lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}

		c.Set(UserIDKey, profile.ID)
		c.Set(AuthUserIDKey, profile.UserID)
		c.Set(ProfileKey, profile)
		c.Next()
	}
}

// ProfileFromContext returns the profile stored by AuthMiddleware.
func ProfileFromContext(c *gin.Context) (models.Profile, bool) {
	val, ok := c.Get(ProfileKey)
	if !ok {
		return models.Profile{}, false
	}
	profile, ok := val.(models.Profile)
	return profile, ok
}
