package auth

import (
	"context"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/utils/platformerrors"
)

// Validator validates JWTs against the issuer's JWKS.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	logger := log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: logger}, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	})
	if err != nil {
		return nil, err
	}

	return &Validator{cfg: cfg, log: logger, jwks: jwks}, nil
}

// Middleware enforces auth when enabled. Requests already authenticated by
// the gateway carry X-User-ID; everything else needs a bearer JWT.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if userID := gatewayUserID(c); userID != "" {
			c.Set("user_id", userID)
			c.Next()
			return
		}

		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			platformerrors.WriteUnauthorized(c, "missing bearer token")
			return
		}
		if strings.HasPrefix(tokenString, "sk_") {
			v.log.Debug().Msg("api key presented without gateway headers")
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		opts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
			jwt.WithLeeway(time.Minute),
		}
		if issuer := strings.TrimSpace(v.cfg.AuthIssuer); issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}
		if audience := strings.TrimSpace(v.cfg.AuthAudience); audience != "" {
			opts = append(opts, jwt.WithAudience(audience))
		}

		token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, opts...)
		if err != nil || !token.Valid {
			v.log.Debug().Err(err).Msg("jwt validation failed")
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		if subject, err := token.Claims.GetSubject(); err == nil && subject != "" {
			c.Set("user_id", subject)
		}
		c.Set("auth_token", token)
		c.Next()
	}
}

// Ready indicates if the validator is prepared.
func (v *Validator) Ready() bool {
	if v == nil || !v.cfg.AuthEnabled {
		return true
	}
	return v.jwks != nil
}

// Close stops background JWKS refreshes.
func (v *Validator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func gatewayUserID(c *gin.Context) string {
	if userID := strings.TrimSpace(c.GetHeader("X-User-ID")); userID != "" {
		return userID
	}
	return strings.TrimSpace(c.GetHeader("X-User-Subject"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
