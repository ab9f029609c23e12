// internal/authsvc/service.go
package authsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wastewise/internal/common/auth"
	"wastewise/internal/common/crm"
	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/validation"
	"wastewise/internal/models"
)

// integrationTimeout bounds the detached post-signup calls.
const integrationTimeout = 15 * time.Second

// EmailSender delivers transactional mail. Satisfied by the SES client.
type EmailSender interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

// ContactCreator syncs new accounts into the CRM.
type ContactCreator interface {
	CreateContact(ctx context.Context, contact *crm.Contact) (string, error)
}

// Session is the result of a successful signup or login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Service owns the account lifecycle. The mail and CRM integrations
// are optional and never block or fail the signup itself.
type Service struct {
	users     *UserStore
	tokens    *auth.TokenManager
	hasher    *auth.PasswordHasher
	revoked   *RevocationList
	mailer    EmailSender
	fromEmail string
	contacts  ContactCreator
	logger    logger.Logger
}

func NewService(
	users *UserStore,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	revoked *RevocationList,
	log logger.Logger,
) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		revoked: revoked,
		logger:  log.Named("authsvc"),
	}
}

// WithMailer enables the welcome email on signup.
func (s *Service) WithMailer(mailer EmailSender, fromEmail string) *Service {
	s.mailer = mailer
	s.fromEmail = fromEmail
	return s
}

// WithContacts enables CRM contact creation on signup.
func (s *Service) WithContacts(contacts ContactCreator) *Service {
	s.contacts = contacts
	return s
}

// Signup registers a new account and returns a ready-to-use session.
func (s *Service) Signup(ctx context.Context, email, password string) (*Session, error) {
	result := validation.CheckCredentials(email, password)
	if !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}
	email = normalizeEmail(email)

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		return nil, err
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, err
	}

	go s.notifySignup(user)

	return session, nil
}

// Login verifies credentials and returns a fresh session. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.NewInvalidCredentialsError()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeRecordNotFound) {
			return nil, errors.NewInvalidCredentialsError()
		}
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, errors.NewInvalidCredentialsError()
	}

	s.logger.Info("User logged in", map[string]interface{}{
		"userId": user.ID,
	})

	return s.newSession(user)
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return errors.NewTokenInvalidError(err.Error())
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revoked.Revoke(ctx, claims.ID, ttl)
}

// Authenticate validates a token and rejects revoked ones. A failing
// revocation lookup degrades to accepting the token; availability wins
// over strictness for this API.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, errors.NewTokenInvalidError(err.Error())
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("Revocation check failed, accepting token", map[string]interface{}{
			"jti":   claims.ID,
			"error": err.Error(),
		})
		return claims, nil
	}
	if revoked {
		return nil, errors.NewTokenRevokedError()
	}

	return claims, nil
}

func (s *Service) newSession(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("issue token: %w", err))
	}
	return &Session{
		User:      user,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// notifySignup runs the optional integrations after the account is
// durable. Failures are logged and dropped.
func (s *Service) notifySignup(user *models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	if s.mailer != nil {
		body := fmt.Sprintf(
			"Welcome to WasteWise!\n\nYour account %s is ready. "+
				"Log your kitchen waste daily to unlock predictions and trend reports.\n",
			user.Email,
		)
		if err := s.mailer.SendPlainEmail(ctx, s.fromEmail, user.Email, "Welcome to WasteWise", body); err != nil {
			sendErr := errors.NewNotificationSendFailedError("email", err)
			s.logger.Warn("Welcome email failed", map[string]interface{}{
				"userId":    user.ID,
				"errorCode": string(sendErr.Code),
				"details":   sendErr.Details,
			})
		}
	}

	if s.contacts != nil {
		contactID, err := s.contacts.CreateContact(ctx, &crm.Contact{
			Email:  user.Email,
			Source: "WasteWise Signup",
		})
		if err != nil {
			syncErr := errors.NewCRMSyncFailedError(err)
			s.logger.Warn("CRM contact creation failed", map[string]interface{}{
				"userId":    user.ID,
				"errorCode": string(syncErr.Code),
				"details":   syncErr.Details,
			})
			return
		}
		s.logger.Info("CRM contact created", map[string]interface{}{
			"userId":    user.ID,
			"contactId": contactID,
		})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
