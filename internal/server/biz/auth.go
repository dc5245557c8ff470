package biz

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/authz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

type AuthServiceParams struct {
	fx.In

	SystemService  *SystemService
	UserService    *UserService
	SettingService *SettingService
}

func NewAuthService(params AuthServiceParams) *AuthService {
	return &AuthService{
		SystemService:  params.SystemService,
		UserService:    params.UserService,
		SettingService: params.SettingService,
	}
}

type AuthService struct {
	SystemService  *SystemService
	UserService    *UserService
	SettingService *SettingService
}

// AuthenticateToken validates a session token and returns the active profile
// it belongs to.
func (s *AuthService) AuthenticateToken(ctx context.Context, tokenString string) (*store.Profile, error) {
	secretKey, err := authz.RunWithSystemBypass(ctx, "auth-get-secret-key", func(bypassCtx context.Context) (string, error) {
		return s.SystemService.SecretKey(bypassCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret key: %w", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrInvalidJWT, token.Header["alg"])
		}

		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrInvalidJWT, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrInvalidJWT)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidJWT)
	}

	if err := s.checkRevocation(ctx, userID, claims); err != nil {
		return nil, err
	}

	profile, err := authz.RunWithSystemBypass(ctx, "auth-lookup", func(bypassCtx context.Context) (*store.Profile, error) {
		return s.UserService.GetProfile(bypassCtx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get profile: %w", ErrInvalidJWT, err)
	}

	if !profile.Active {
		return nil, fmt.Errorf("%w: profile not activated", ErrInvalidJWT)
	}

	log.Debug(ctx, "token authenticated", log.String("user_id", profile.ID))

	return profile, nil
}

// checkRevocation rejects tokens issued at or before the user's sign-out
// watermark, so a captured bearer token dies with the session instead of
// living out its expiry.
func (s *AuthService) checkRevocation(ctx context.Context, userID string, claims jwt.MapClaims) error {
	value, err := authz.RunWithSystemBypass(ctx, "auth-revocation-check", func(bypassCtx context.Context) (string, error) {
		value, _, err := s.SettingService.GetFresh(bypassCtx, local.RevocationKeyFor(userID))

		return value, err
	})
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}

	if value == "" {
		return nil
	}

	revokedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed revocation record", ErrInvalidJWT)
	}

	issuedAt, ok := claims["issued_at"].(float64)
	if !ok || int64(issuedAt) <= revokedAt {
		return fmt.Errorf("%w: token issued before sign-out", ErrInvalidJWT)
	}

	return nil
}
