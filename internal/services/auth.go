package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/tenancy"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/user"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/apierr"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/ctxutil"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

const minPasswordLength = 8

type JWTClaims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *types.User `json:"user,omitempty"`
}

type AuthService interface {
	Login(dbc dbctx.Context, email, password string) (*TokenPair, error)
	Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error)
	Logout(dbc dbctx.Context) error
	// SetContextFromToken validates an access token and attaches the principal to the request context.
	SetContextFromToken(dbc dbctx.Context, tokenString string) (*ctxutil.RequestData, error)
	CleanupExpiredTokens(dbc dbctx.Context) (int64, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	tenantRepo    repos.TenantRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	tenantRepo repos.TenantRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		tenantRepo:    tenantRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// HashPassword bcrypt-hashes a plain password after enforcing the minimum length.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLength {
		return "", apierr.Field("password", fmt.Sprintf("must have at least %d characters", minPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))
}

func (as *authService) Login(dbc dbctx.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fields := fieldErrors{}
	fields.required("email", email)
	fields.required("password", password)
	if err := fields.err(); err != nil {
		return nil, err
	}

	u, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	if err := as.checkTenant(dbc, u.TenantID); err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = inTx(dbc, as.db, func(inner dbctx.Context) error {
		p, err := as.issue(inner, u)
		if err != nil {
			return err
		}
		pair = p
		return as.userRepo.UpdateFields(inner, u.ID, map[string]any{"last_login_at": as.now()})
	})
	if err != nil {
		as.log.Warn("login failed", "user_id", u.ID, "error", err)
		return nil, err
	}
	as.log.Info("user logged in", "user_id", u.ID, "tenant_id", u.TenantID)
	return pair, nil
}

func (as *authService) Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Field("refreshToken", "is required")
	}
	var pair *TokenPair
	err := inTx(dbc, as.db, func(inner dbctx.Context) error {
		found, err := as.userTokenRepo.GetByRefreshTokens(inner, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 || found[0] == nil {
			return apierr.Unauthorized("refresh token not recognised")
		}
		existing := found[0]
		if existing.ExpiresAt.Before(as.now()) {
			if err := as.userTokenRepo.SoftDeleteByIDs(inner, []uuid.UUID{existing.ID}); err != nil {
				return err
			}
			return apierr.Unauthorized("refresh token expired")
		}
		u, err := as.userRepo.GetByID(inner, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if u == nil || !u.IsActive {
			return apierr.Unauthorized("user is not active")
		}
		if err := as.checkTenant(inner, u.TenantID); err != nil {
			return err
		}
		p, err := as.issue(inner, u)
		if err != nil {
			return err
		}
		pair = p
		return as.userTokenRepo.SoftDeleteByIDs(inner, []uuid.UUID{existing.ID})
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(dbc dbctx.Context) error {
	rd, err := requestData(dbc.Ctx)
	if err != nil {
		return err
	}
	if rd.TokenString == "" {
		return apierr.Unauthorized("token not set in request data")
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("load user token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	return as.userTokenRepo.SoftDeleteByIDs(dbc, ids)
}

func (as *authService) SetContextFromToken(dbc dbctx.Context, tokenString string) (*ctxutil.RequestData, error) {
	if tokenString == "" {
		return nil, apierr.Unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Sprintf("invalid token: %v", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthorized("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Unauthorized("invalid subject in token")
	}
	var tenantID uuid.UUID
	if claims.TenantID != "" {
		if tenantID, err = uuid.Parse(claims.TenantID); err != nil {
			return nil, apierr.Unauthorized("invalid tenant in token")
		}
	}

	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		return nil, fmt.Errorf("load user token: %w", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, apierr.Unauthorized("session ended")
	}
	if tenantID != uuid.Nil {
		if err := as.checkTenant(dbc, &tenantID); err != nil {
			return nil, err
		}
	}
	return &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   found[0].ID,
		TenantID:    tenantID,
		Role:        claims.Role,
		UserName:    claims.Name,
	}, nil
}

func (as *authService) CleanupExpiredTokens(dbc dbctx.Context) (int64, error) {
	return as.userTokenRepo.FullDeleteExpired(dbc, as.now())
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) checkTenant(dbc dbctx.Context, tenantID *uuid.UUID) error {
	if tenantID == nil {
		return nil
	}
	t, err := as.tenantRepo.GetByID(dbc, *tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}
	if t == nil {
		return apierr.Unauthorized("tenant not found")
	}
	switch t.Status {
	case tenancy.TenantSuspended:
		return apierr.New(http.StatusForbidden, "tenant_suspended", errors.New("tenant is suspended"))
	case tenancy.TenantCancelled:
		return apierr.New(http.StatusForbidden, "tenant_cancelled", errors.New("tenant is cancelled"))
	}
	return nil
}

func (as *authService) issue(dbc dbctx.Context, u *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    int64(as.accessTTL.Seconds()),
		User:         u,
	}, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: u.Role,
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if u.TenantID != nil && u.Role != user.RoleSuperadmin {
		claims.TenantID = u.TenantID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
