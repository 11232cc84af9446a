package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/security"
	"lagimmo/api/internal/tokens"
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("wrong credentials")
	ErrWrongPassword      = apperr.Unauthorized("old password is incorrect")
	ErrPasswordReused     = apperr.Validation("password was used recently, choose a different one")
	ErrUserNameExhausted  = apperr.Conflict("could not generate a free user name")
	ErrForeignToken       = apperr.Forbidden("token belongs to another user")
)

const maxUserNameAttempts = 50

type SignupInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type LoginInput struct {
	Login    string
	Password string
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	UserName  *string
}

type AuthResult struct {
	User   models.User
	Tokens TokenPair
}

type AuthService struct {
	users       UserStore
	credentials CredentialStore
	tokens      *TokenService
	mail        MailSender
	hasher      security.Hasher
	history     int
	templates   config.MailTemplates
	log         zerolog.Logger
}

func NewAuthService(
	users UserStore,
	credentials CredentialStore,
	tokenService *TokenService,
	mail MailSender,
	cfg config.SecurityConfig,
	templates config.MailTemplates,
	log zerolog.Logger,
) *AuthService {
	history := cfg.PasswordHistory
	if history <= 0 {
		history = 10
	}
	return &AuthService{
		users:       users,
		credentials: credentials,
		tokens:      tokenService,
		mail:        mail,
		hasher:      security.NewHasher(cfg.BcryptCost),
		history:     history,
		templates:   templates,
		log:         log,
	}
}

// Signup registers an admin identity, returns a token pair and mails an
// email verification link.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	user, err := s.createUser(ctx, input, false, false)
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(ctx, user, models.LoginFromWeb)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("verification mail failed")
	}

	return AuthResult{User: user, Tokens: pair}, nil
}

// CreateSuperUser registers a verified super-user.
func (s *AuthService) CreateSuperUser(ctx context.Context, input SignupInput) (models.User, error) {
	return s.createUser(ctx, input, true, true)
}

func (s *AuthService) createUser(ctx context.Context, input SignupInput, superUser, verified bool) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}

	userName := strings.TrimSpace(input.UserName)
	if userName == "" {
		generated, err := s.generateUserName(ctx, input.FirstName, input.LastName)
		if err != nil {
			return models.User{}, err
		}
		userName = generated
	} else {
		taken, err := s.users.UserNameExists(ctx, userName)
		if err != nil {
			return models.User{}, fmt.Errorf("lookup user name: %w", err)
		}
		if taken {
			return models.User{}, repository.ErrUserNameTaken
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:          ids.New(),
		Email:       email,
		UserName:    userName,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Role:        models.UserRoleAdmin,
		IsSuperUser: superUser,
		IsVerified:  verified,
	}
	cred := models.Credential{ID: ids.New(), UserID: user.ID, Hash: hash, IsCurrent: true}
	if err := s.users.CreateWithCredential(ctx, user, cred); err != nil {
		return models.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Bool("super_user", superUser).Msg("user created")
	return user, nil
}

// generateUserName tries first.last, then first.last2, first.last3 and so on.
func (s *AuthService) generateUserName(ctx context.Context, firstName, lastName string) (string, error) {
	base := slug(firstName) + "." + slug(lastName)
	base = strings.Trim(base, ".")
	if base == "" {
		base = "user"
	}

	for attempt := 1; attempt <= maxUserNameAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = base + strconv.Itoa(attempt)
		}
		taken, err := s.users.UserNameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("lookup user name: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrUserNameExhausted
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LoginAdmin authenticates a super-user by email or user name. Unknown
// logins and wrong passwords fail identically.
func (s *AuthService) LoginAdmin(ctx context.Context, input LoginInput) (AuthResult, error) {
	user, err := s.users.FindSuperUserByLogin(ctx, input.Login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.passwordMatches(ctx, user.ID, input.Password)
	if err != nil {
		return AuthResult{}, err
	}
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, user, models.LoginFromWeb)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) passwordMatches(ctx context.Context, userID, password string) (bool, error) {
	cred, err := s.credentials.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load credential: %w", err)
	}
	return s.hasher.Matches(password, cred.Hash)
}

// Refresh rotates a refresh token: the old session is revoked and its entry
// dropped, and a new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	user, claims, err := s.tokens.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.tokens.RevokeSession(ctx, claims.JwtID); err != nil {
		return AuthResult{}, err
	}
	if err := s.tokens.Forget(ctx, tokens.Lookup{UserID: user.ID, Kind: tokens.KindRefresh, Token: refreshToken}); err != nil {
		return AuthResult{}, err
	}

	pair, err := s.tokens.IssuePair(ctx, user, models.LoginFromWeb)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Tokens: pair}, nil
}

// Logout drops the access token and, when given, revokes the refresh session.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if err := s.tokens.Forget(ctx, tokens.Lookup{UserID: userID, Kind: tokens.KindAccess, Token: accessToken}); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}

	claims, err := security.ParseToken(refreshToken, s.tokens.cfg.JWTSecret)
	if err != nil && !errors.Is(err, security.ErrTokenExpired) {
		return ErrRefreshInvalid
	}
	if claims == nil {
		// expired refresh tokens are already unusable
		return nil
	}
	if claims.Subject != userID {
		return ErrForeignToken
	}
	if claims.JwtID == "" {
		return ErrRefreshInvalid
	}
	return s.tokens.RevokeSession(ctx, claims.JwtID)
}

func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAll(ctx, userID)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.UserName != nil {
		name := strings.TrimSpace(*input.UserName)
		if name != user.UserName {
			taken, err := s.users.UserNameExists(ctx, name)
			if err != nil {
				return models.User{}, fmt.Errorf("lookup user name: %w", err)
			}
			if taken {
				return models.User{}, repository.ErrUserNameTaken
			}
			user.UserName = name
		}
	}
	return s.users.UpdateProfile(ctx, user)
}

// ChangePassword requires the current password and refuses recent ones.
// Both checks run under the credential lock, so of two concurrent changes
// from the same old password only one succeeds.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.replacePassword(ctx, userID, newPassword, &oldPassword)
}

// SetPassword checks the reuse window and makes the new hash current.
func (s *AuthService) SetPassword(ctx context.Context, userID, password string) error {
	return s.replacePassword(ctx, userID, password, nil)
}

func (s *AuthService) replacePassword(ctx context.Context, userID, password string, oldPassword *string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	check := func(history []models.Credential) error {
		if oldPassword != nil {
			if err := s.requireCurrent(history, *oldPassword); err != nil {
				return err
			}
		}
		return s.rejectReuse(history, password)
	}
	cred := models.Credential{ID: ids.New(), UserID: userID, Hash: hash, IsCurrent: true}
	return s.credentials.Replace(ctx, userID, cred, s.history, check)
}

func (s *AuthService) requireCurrent(history []models.Credential, password string) error {
	for _, cred := range history {
		if !cred.IsCurrent {
			continue
		}
		ok, err := s.hasher.Matches(password, cred.Hash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongPassword
		}
		return nil
	}
	return ErrWrongPassword
}

func (s *AuthService) rejectReuse(history []models.Credential, password string) error {
	for _, cred := range history {
		same, err := s.hasher.Matches(password, cred.Hash)
		if err != nil {
			return err
		}
		if same {
			return ErrPasswordReused
		}
	}
	return nil
}

// RequestPasswordReset mails a reset link when login matches an identity.
// Callers cannot tell whether it did.
func (s *AuthService) RequestPasswordReset(ctx context.Context, login string) error {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Debug().Str("login", login).Msg("password reset for unknown login")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	link, err := s.tokens.IssueResetToken(ctx, user)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		To:         []string{user.Email},
		Subject:    "Mise à jour de votre mot de passe",
		TemplateID: s.templates.ResetPassword,
		Data: map[string]any{
			"firstName":          user.FirstName,
			"resetPasswordToken": link,
		},
	}
	if msg.TemplateID == "" {
		msg.Text = "Bonjour " + user.FirstName + ",\n\nPour réinitialiser votre mot de passe : " + link
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return apperr.Upstream("could not send reset email", err)
	}
	return nil
}

// ResetPassword consumes a reset token. The token is taken off the
// allow-list before the password changes, so a token resets at most once; a
// rejected password puts it back. Every outstanding reset token of the
// identity is invalidated afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.ConsumePurposeToken(ctx, token, tokens.KindResetPassword)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return s.restoreResetToken(ctx, token, claims, err)
	}

	if err := s.SetPassword(ctx, user.ID, password); err != nil {
		return s.restoreResetToken(ctx, token, claims, err)
	}
	return s.tokens.Forget(ctx, tokens.Lookup{UserID: user.ID, Kind: tokens.KindResetPassword})
}

// restoreResetToken returns cause after putting the token back.
func (s *AuthService) restoreResetToken(ctx context.Context, token string, claims *security.Claims, cause error) error {
	if err := s.tokens.RestorePurposeToken(ctx, token, tokens.KindResetPassword, claims); err != nil {
		s.log.Warn().Err(err).Str("user_id", claims.Subject).Msg("could not restore reset token")
	}
	return cause
}

func (s *AuthService) VerifyAccount(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.VerifyPurposeToken(ctx, token, tokens.KindEmailVerification)
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.MarkVerified(ctx, claims.Subject); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrTokenInvalid
		}
		return models.User{}, err
	}
	if err := s.tokens.Forget(ctx, tokens.Lookup{UserID: claims.Subject, Kind: tokens.KindEmailVerification}); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, claims.Subject)
}

// ResendVerification issues a new verification link for an unverified identity.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.IsVerified {
		return nil
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return apperr.Upstream("could not send verification email", err)
	}
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user models.User) error {
	link, err := s.tokens.IssueVerificationToken(ctx, user)
	if err != nil {
		return err
	}
	msg := mailer.Message{
		To:         []string{user.Email},
		Subject:    "Vérifiez votre adresse email",
		TemplateID: s.templates.VerifyAccount,
		Data: map[string]any{
			"firstName":         user.FirstName,
			"verificationToken": link,
		},
	}
	if msg.TemplateID == "" {
		msg.Text = "Bonjour " + user.FirstName + ",\n\nPour activer votre compte : " + link
	}
	return s.mail.Send(ctx, msg)
}
