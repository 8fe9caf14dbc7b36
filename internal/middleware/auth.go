package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	IsAdminKey contextKey = "is_admin"
)

// tokenClaims mirrors the claims issued by the user service.
type tokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	IsAdmin bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

// AccountChecker verifies that the account behind a token still exists and
// is active. Implemented by the user repository.
type AccountChecker interface {
	IsAccountActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

func parseBearerToken(r *http.Request, jwtSecret string) (*tokenClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("invalid authorization header format")
	}

	token, err := jwt.ParseWithClaims(parts[1], &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("missing user_id in token claims")
	}

	return claims, nil
}

func withIdentity(ctx context.Context, claims *tokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, IsAdminKey, claims.IsAdmin)
}

// AuthMiddleware validates JWT tokens, verifies that the account is still
// active, and puts the caller's identity into the request context. Tokens
// of deactivated accounts are rejected even before they expire.
func AuthMiddleware(jwtSecret string, accounts AccountChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearerToken(r, jwtSecret)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "توکن منقضی شده است")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
				}
				return
			}

			active, err := accounts.IsAccountActive(r.Context(), claims.UserID)
			if err != nil {
				logger.Debug("Account lookup failed",
					zap.String("user_id", claims.UserID.String()),
					zap.Error(err),
				)
				RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
				return
			}
			if !active {
				logger.Warn("Deactivated account presented a valid token",
					zap.String("user_id", claims.UserID.String()),
				)
				RespondWithError(w, http.StatusUnauthorized, "حساب کاربری غیرفعال است")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
		})
	}
}

// OptionalAuthMiddleware runs the same decode path as AuthMiddleware but
// never fails the request: any verification problem just leaves the request
// anonymous. Used by endpoints that personalize output when a user happens
// to be logged in.
func OptionalAuthMiddleware(jwtSecret string, accounts AccountChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearerToken(r, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			active, err := accounts.IsAccountActive(r.Context(), claims.UserID)
			if err != nil || !active {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
		})
	}
}

// RequireAdmin ensures the authenticated caller is an admin. Must run after
// AuthMiddleware.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isAdmin, ok := IsAdmin(r.Context())
			if !ok || !isAdmin {
				if userID, found := GetUserID(r.Context()); found {
					logger.Warn("Non-admin user attempted to access admin endpoint",
						zap.String("user_id", userID.String()),
					)
				}
				RespondWithError(w, http.StatusForbidden, "دسترسی غیرمجاز")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the caller's user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// IsAdmin extracts the caller's admin flag from request context
func IsAdmin(ctx context.Context) (bool, bool) {
	isAdmin, ok := ctx.Value(IsAdminKey).(bool)
	return isAdmin, ok
}
