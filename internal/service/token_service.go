package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/metrics"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/security"
	"lagimmo/api/internal/tokens"
)

var (
	ErrTokenInvalid    = apperr.Unauthorized("invalid token")
	ErrTokenNotAllowed = apperr.Unauthorized("token revoked or expired")

	ErrRefreshInvalid   = apperr.Unauthorized("invalid refresh token")
	ErrRefreshExpired   = apperr.Unauthorized("refresh token expired")
	ErrRefreshForbidden = apperr.Forbidden("refresh token not allowed")
	ErrRefreshNotFound  = apperr.Unauthorized("refresh token not found")
	ErrRefreshRevoked   = apperr.Unauthorized("refresh token revoked")
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs tokens, allow-lists them and verifies them against the
// allow-list and the session registry.
type TokenService struct {
	allow        AllowList
	sessions     SessionStore
	users        UserStore
	cfg          config.SecurityConfig
	frontendHost string
	now          func() time.Time
}

func NewTokenService(allow AllowList, sessions SessionStore, users UserStore, cfg config.SecurityConfig, frontendHost string) *TokenService {
	return &TokenService{
		allow:        allow,
		sessions:     sessions,
		users:        users,
		cfg:          cfg,
		frontendHost: strings.TrimSuffix(frontendHost, "/"),
		now:          time.Now,
	}
}

func metadataFor(user models.User) security.Metadata {
	verified := user.IsVerified
	return security.Metadata{
		Role:       string(user.Role),
		Email:      user.Email,
		IsVerified: &verified,
	}
}

func (s *TokenService) IssueAccessToken(ctx context.Context, user models.User) (string, error) {
	return s.issue(ctx, user, tokens.KindAccess, security.Claims{Metadata: metadataFor(user)}, s.cfg.JWTSecret, s.cfg.AccessTTL)
}

// IssueRefreshToken persists a session first; the token's jwtId is the session id.
func (s *TokenService) IssueRefreshToken(ctx context.Context, user models.User, from models.LoginSource) (string, error) {
	if from == "" {
		from = models.LoginFromWeb
	}
	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		LoginFrom: from,
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	claims := security.Claims{JwtID: session.ID, Metadata: metadataFor(user)}
	return s.issue(ctx, user, tokens.KindRefresh, claims, s.cfg.JWTSecret, s.cfg.RefreshTTL)
}

func (s *TokenService) IssuePair(ctx context.Context, user models.User, from models.LoginSource) (TokenPair, error) {
	access, err := s.IssueAccessToken(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, user, from)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueResetToken supersedes outstanding reset tokens and returns the reset link.
func (s *TokenService) IssueResetToken(ctx context.Context, user models.User) (string, error) {
	token, err := s.issuePurpose(ctx, user, tokens.KindResetPassword)
	if err != nil {
		return "", err
	}
	return s.frontendHost + "/reset-password?token=" + url.QueryEscape(token), nil
}

// IssueVerificationToken supersedes outstanding verification tokens and
// returns the verification link.
func (s *TokenService) IssueVerificationToken(ctx context.Context, user models.User) (string, error) {
	token, err := s.issuePurpose(ctx, user, tokens.KindEmailVerification)
	if err != nil {
		return "", err
	}
	return s.frontendHost + "/account-verification?token=" + url.QueryEscape(token), nil
}

func (s *TokenService) issuePurpose(ctx context.Context, user models.User, kind tokens.Kind) (string, error) {
	secret, ttl := s.purpose(kind)
	if _, err := s.allow.Purge(ctx, tokens.Lookup{UserID: user.ID, Kind: kind}); err != nil {
		return "", apperr.Upstream("token store unavailable", err)
	}
	return s.issue(ctx, user, kind, security.Claims{Metadata: security.Metadata{Role: string(user.Role), Email: user.Email}}, secret, ttl)
}

func (s *TokenService) purpose(kind tokens.Kind) (string, time.Duration) {
	if kind == tokens.KindResetPassword {
		return s.cfg.ResetPasswordSecret, s.cfg.ResetTTL
	}
	return s.cfg.VerifyAccountSecret, s.cfg.VerifyTTL
}

func (s *TokenService) issue(ctx context.Context, user models.User, kind tokens.Kind, claims security.Claims, secret string, ttl time.Duration) (string, error) {
	token, err := security.SignToken(secret, user.ID, claims, ttl, s.now())
	if err != nil {
		return "", err
	}
	entry := tokens.Entry{Role: string(user.Role), UserID: user.ID, Kind: kind, Token: token}
	if err := s.allow.Insert(ctx, entry, ttl); err != nil {
		return "", apperr.Upstream("token store unavailable", err)
	}
	metrics.RecordTokenIssued(string(kind))
	return token, nil
}

// Verify checks an access-secret token and its allow-list entry of any kind.
func (s *TokenService) Verify(ctx context.Context, token string) (*security.Claims, error) {
	claims, err := security.ParseToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	ok, err := s.allow.Exists(ctx, tokens.Lookup{UserID: claims.Subject, Token: token})
	if err != nil {
		return nil, apperr.Upstream("token store unavailable", err)
	}
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	return claims, nil
}

// VerifyPurposeToken checks a reset or verification token.
func (s *TokenService) VerifyPurposeToken(ctx context.Context, token string, kind tokens.Kind) (*security.Claims, error) {
	secret, _ := s.purpose(kind)
	claims, err := security.ParseToken(token, secret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	ok, err := s.allow.Exists(ctx, tokens.Lookup{UserID: claims.Subject, Kind: kind, Token: token})
	if err != nil {
		return nil, apperr.Upstream("token store unavailable", err)
	}
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	return claims, nil
}

// ConsumePurposeToken checks a reset or verification token and removes its
// allow-list entry in the same step. Only one caller can consume a token.
func (s *TokenService) ConsumePurposeToken(ctx context.Context, token string, kind tokens.Kind) (*security.Claims, error) {
	secret, _ := s.purpose(kind)
	claims, err := security.ParseToken(token, secret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	n, err := s.allow.Purge(ctx, tokens.Lookup{UserID: claims.Subject, Kind: kind, Token: token})
	if err != nil {
		return nil, apperr.Upstream("token store unavailable", err)
	}
	if n == 0 {
		return nil, ErrTokenNotAllowed
	}
	return claims, nil
}

// RestorePurposeToken puts a consumed token back for the rest of its
// lifetime. It is a no-op once the token has expired.
func (s *TokenService) RestorePurposeToken(ctx context.Context, token string, kind tokens.Kind, claims *security.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	entry := tokens.Entry{Role: claims.Metadata.Role, UserID: claims.Subject, Kind: kind, Token: token}
	if err := s.allow.Insert(ctx, entry, ttl); err != nil {
		return apperr.Upstream("token store unavailable", err)
	}
	return nil
}

// ResolveRefreshToken returns the identity behind a refresh token.
func (s *TokenService) ResolveRefreshToken(ctx context.Context, token string) (models.User, *security.Claims, error) {
	claims, err := security.ParseToken(token, s.cfg.JWTSecret)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return models.User{}, nil, ErrRefreshExpired
		}
		return models.User{}, nil, ErrRefreshInvalid
	}
	if claims.Subject == "" || claims.JwtID == "" {
		return models.User{}, nil, ErrRefreshInvalid
	}

	ok, err := s.allow.Exists(ctx, tokens.Lookup{UserID: claims.Subject, Kind: tokens.KindRefresh, Token: token})
	if err != nil {
		return models.User{}, nil, apperr.Upstream("token store unavailable", err)
	}
	if !ok {
		return models.User{}, nil, ErrRefreshForbidden
	}

	session, err := s.sessions.GetByID(ctx, claims.JwtID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, nil, ErrRefreshNotFound
		}
		return models.User{}, nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != claims.Subject {
		return models.User{}, nil, ErrRefreshInvalid
	}
	if session.Revoked {
		return models.User{}, nil, ErrRefreshRevoked
	}
	if session.Expired(s.now()) {
		return models.User{}, nil, ErrRefreshExpired
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, nil, ErrRefreshInvalid
		}
		return models.User{}, nil, fmt.Errorf("load user: %w", err)
	}
	return user, claims, nil
}

// Forget removes allow-list entries matching l.
func (s *TokenService) Forget(ctx context.Context, l tokens.Lookup) error {
	if _, err := s.allow.Purge(ctx, l); err != nil {
		return apperr.Upstream("token store unavailable", err)
	}
	return nil
}

// RevokeSession flags a refresh session revoked. Its allow-list entry stays so
// later use of the token reports the revocation.
func (s *TokenService) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll revokes every session of userID and drops its access and refresh entries.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	if _, err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	for _, kind := range []tokens.Kind{tokens.KindAccess, tokens.KindRefresh} {
		if err := s.Forget(ctx, tokens.Lookup{UserID: userID, Kind: kind}); err != nil {
			return err
		}
	}
	return nil
}
