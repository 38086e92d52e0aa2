package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"foodgram/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Request attributes set by the filters.
const (
	AttrUserID   = "user_id"
	AttrUsername = "username"
)

const issuer = "foodgram"

var (
	// mySigningKey is replaced from configuration at startup.
	mySigningKey = []byte("mySigningKey")
	tokenTTL     = 24 * time.Hour
)

// SetSigningKey allows setting the key from outside the package.
func SetSigningKey(key []byte) {
	if len(key) > 0 {
		mySigningKey = key
	}
}

// SetTokenTTL sets how long issued tokens stay valid.
func SetTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// CustomClaims represents the custom claims included in our JWT.
type CustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   "user-auth",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(mySigningKey)
}

// ParseAndValidateToken : used by the filters
func ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return mySigningKey, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UserLookup loads the account behind a token.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// PermissionChecker answers RBAC questions for a user.
type PermissionChecker interface {
	HasPermissions(ctx context.Context, userID uint, permissions ...string) (bool, error)
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>".
func extractToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", errors.New("invalid authorization header format")
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
		return parts[1], nil
	default:
		return "", errors.New("invalid authorization header format")
	}
}

// authenticate resolves the header to an active user.
func authenticate(req *restful.Request, users UserLookup) (*models.User, error) {
	tokenString, err := extractToken(req.HeaderParameter("Authorization"))
	if err != nil {
		return nil, err
	}
	claims, err := ParseAndValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := users.FindByID(req.Request.Context(), claims.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if user.IsBlocked {
		return nil, errors.New("user is blocked")
	}
	return user, nil
}

func unauthorized(resp *restful.Response, message string) {
	_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"detail": message}, restful.MIME_JSON)
}

// AuthFilter creates a go-restful FilterFunction for JWT authentication.
// Blocked accounts are rejected like invalid tokens.
func AuthFilter(users UserLookup) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if req.HeaderParameter("Authorization") == "" {
			unauthorized(resp, "Authentication credentials were not provided.")
			return
		}
		user, err := authenticate(req, users)
		if err != nil {
			unauthorized(resp, err.Error())
			return
		}

		// Store user information in request attributes for use by subsequent processing functions
		req.SetAttribute(AttrUserID, user.ID)
		req.SetAttribute(AttrUsername, user.Username)
		chain.ProcessFilter(req, resp)
	}
}

// OptionalAuthFilter identifies the user when a header is present and lets
// anonymous requests through. A header that does not resolve is still 401.
func OptionalAuthFilter(users UserLookup) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if req.HeaderParameter("Authorization") == "" {
			chain.ProcessFilter(req, resp)
			return
		}
		user, err := authenticate(req, users)
		if err != nil {
			unauthorized(resp, err.Error())
			return
		}
		req.SetAttribute(AttrUserID, user.ID)
		req.SetAttribute(AttrUsername, user.Username)
		chain.ProcessFilter(req, resp)
	}
}

// RequirePermissions must run after AuthFilter. It answers 403 unless the
// user holds every permission.
func RequirePermissions(checker PermissionChecker, permissions ...string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		userID, ok := UserID(req)
		if !ok {
			unauthorized(resp, "Authentication credentials were not provided.")
			return
		}
		allowed, err := checker.HasPermissions(req.Request.Context(), userID, permissions...)
		if err != nil || !allowed {
			_ = resp.WriteHeaderAndJson(http.StatusForbidden,
				map[string]string{"detail": "You do not have permission to perform this action."}, restful.MIME_JSON)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

// UserID returns the authenticated user id, if any.
func UserID(req *restful.Request) (uint, bool) {
	userID, ok := req.Attribute(AttrUserID).(uint)
	return userID, ok && userID != 0
}
