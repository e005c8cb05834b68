package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JonnyWalker81/heldairy/backend/internal/apierror"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

// TokenVerifier resolves a bearer token to the id of its user
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier checks HS256 tokens signed with a shared secret
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTVerifier creates a verifier; empty issuer or audience are not checked
func NewJWTVerifier(secret, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", errors.New("token subject missing")
	}
	return sub, nil
}

// SupabaseVerifier asks Supabase Auth who owns the token
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return &SupabaseVerifier{client: client}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	user, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", errors.New("token user missing")
	}
	return user.ID, nil
}

// Auth rejects requests without a valid bearer token and stores the user id
// in the gin context and in the request context for logging
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.Debug("authentication failed: missing or malformed authorization header")
			apierror.Abort(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.Warn("authentication failed: token verification error", logger.Err(err))
			apierror.Abort(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			return
		}

		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside Auth
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
