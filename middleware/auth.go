package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"go.uber.org/zap"
)

// Gin context keys set by EnsureValidToken
const (
	userIDKey      = "user_id"
	claimsKey      = "validated_claims"
	accessTokenKey = "access_token"
)

// CustomClaims holds the boutique-specific claims of an Auth0 access token
type CustomClaims struct {
	Scope string `json:"scope"`
	// Roles is added to the access token by an Auth0 post-login action
	Roles []string `json:"https://herecomesthebride.com/roles"`
}

// Validate satisfies validator.CustomClaims. Roles are checked per route by
// RequireRole, not at token validation.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope reports whether the space-separated scope claim contains scope
func (c CustomClaims) HasScope(scope string) bool {
	return scope != "" && slices.Contains(strings.Fields(c.Scope), scope)
}

// HasRole reports whether the user was granted role
func (c CustomClaims) HasRole(role string) bool {
	return role != "" && slices.Contains(c.Roles, role)
}

func newTokenValidator(cfg *config.Config) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken rejects requests without a valid Auth0 access token and
// stores the caller's id, claims and raw token in the gin context
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	tokenValidator, err := newTokenValidator(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to set up the jwt validator: %v", err)
	}

	checker := jwtmiddleware.New(
		tokenValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			zap.L().Info("Rejected access token", zap.String("path", r.URL.Path), zap.Error(err))

			code, message := "INVALID_TOKEN", "Failed to validate JWT."
			if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
				code, message = "MISSING_TOKEN", "Authorization header is required"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`)) //nolint:errcheck
		}),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok {
				abortWithError(c, http.StatusUnauthorized, "INVALID_CLAIMS", "Claims are not in the expected format")
				return
			}

			c.Set(userIDKey, claims.RegisteredClaims.Subject)
			c.Set(claimsKey, claims)
			c.Set(accessTokenKey, strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")))
			c.Next()
		})

		checker.CheckJWT(next).ServeHTTP(c.Writer, c.Request)
		// the error handler already wrote the response
		if !passed {
			c.Abort()
		}
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetAccessToken returns the bearer token of a request that passed EnsureValidToken
func GetAccessToken(c *gin.Context) (string, error) {
	token := c.GetString(accessTokenKey)
	if token == "" {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}
	return token, nil
}

// RequireRole lets through users granted role. Tokens carrying one of
// scopes are let through as well; machine-to-machine tokens have no roles.
func RequireRole(role string, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "MISSING_CLAIMS", "Could not retrieve token claims")
			return
		}

		customClaims, ok := claims.CustomClaims.(*CustomClaims)
		if ok && (customClaims.HasRole(role) || slices.ContainsFunc(scopes, customClaims.HasScope)) {
			c.Next()
			return
		}

		userID, _ := GetUserID(c)
		zap.L().Warn("Rejected non-admin user", zap.String("user_id", userID), zap.String("path", c.FullPath()))
		abortWithError(c, http.StatusForbidden, "NOT_ADMIN", "You are not authorized to access the admin panel")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
