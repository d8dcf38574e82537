package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/token"
)

// AccountService owns the account lifecycle: creation, registration with
// email activation, the two-phase email change, password management, and
// deletion. It never logs; failures surface as wrapped sentinel errors.
type AccountService struct {
	users      domain.UserRepository
	tokens     *token.Generator
	mailer     domain.Mailer
	policy     PasswordPolicy
	bcryptCost int
}

// NewAccountService creates a new AccountService.
func NewAccountService(users domain.UserRepository, tokens *token.Generator, mailer domain.Mailer, policy PasswordPolicy, bcryptCost int) *AccountService {
	return &AccountService{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		policy:     policy,
		bcryptCost: bcryptCost,
	}
}

// NormalizeEmail trims whitespace and lower-cases the domain part. The
// local part is preserved as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, dom, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local + "@" + strings.ToLower(dom)
}

// UserOption overrides a default on a user being created.
type UserOption func(*domain.User)

func WithActive(active bool) UserOption {
	return func(u *domain.User) { u.IsActive = active }
}

func WithStaff(staff bool) UserOption {
	return func(u *domain.User) { u.IsStaff = staff }
}

func WithSuperuser(super bool) UserOption {
	return func(u *domain.User) { u.IsSuperuser = super }
}

func WithPermissions(perms ...string) UserOption {
	return func(u *domain.User) { u.Permissions = perms }
}

// CreateUser persists a new account. Defaults: active, not staff, not
// superuser. The password is hashed if non-empty; an empty password leaves
// the account unable to log in until one is set.
func (s *AccountService) CreateUser(ctx context.Context, email, firstName, lastName, password string, opts ...UserOption) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user := &domain.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	}
	for _, opt := range opts {
		opt(user)
	}

	if password != "" {
		hash, err := s.hashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSuperuser creates an account with full privileges. Passing an
// option that strips either flag is a contract violation, not a quiet
// downgrade.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, firstName, lastName, password string, opts ...UserOption) (*domain.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: superuser requires a password", domain.ErrInvalidInput)
	}

	all := append([]UserOption{WithStaff(true), WithSuperuser(true)}, opts...)

	probe := &domain.User{}
	for _, opt := range all {
		opt(probe)
	}
	if !probe.IsStaff {
		return nil, fmt.Errorf("%w: superuser must have is_staff=true", domain.ErrInvalidInput)
	}
	if !probe.IsSuperuser {
		return nil, fmt.Errorf("%w: superuser must have is_superuser=true", domain.ErrInvalidInput)
	}

	return s.CreateUser(ctx, email, firstName, lastName, password, all...)
}

// RegisterInput is the validated registration form data.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates an inactive account and emails an activation link built
// on baseURL. The duplicate pre-check is a fast courtesy; the unique
// constraint remains the authority and surfaces as the same error.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, baseURL string) (*domain.User, error) {
	email := NormalizeEmail(in.Email)

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	candidate := &domain.User{Email: email, FirstName: in.FirstName, LastName: in.LastName}
	if err := s.policy.Validate(in.Password, candidate); err != nil {
		return nil, err
	}

	user, err := s.CreateUser(ctx, email, in.FirstName, in.LastName, in.Password, WithActive(false))
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/accounts/activate/%s/%s",
		baseURL,
		token.EncodeUID(user.ID),
		s.tokens.Make(token.PurposeActivation, user.ID, token.ActivationFingerprint(user)),
	)
	body := fmt.Sprintf(
		"Dear %s,\n\nThank you for registering with GiftWell. Please activate your account by clicking the below link.\n\n%s\n",
		user.ShortName(), link,
	)
	if err := s.mailer.Send(ctx, user.Email, "Activate your account", body); err != nil {
		return nil, fmt.Errorf("send activation mail: %w", err)
	}

	return user, nil
}

// Activate consumes an activation token and flips the account to active.
// Every failure mode collapses into ErrInvalidToken so the response cannot
// be used to enumerate accounts.
func (s *AccountService) Activate(ctx context.Context, uid, tok string) error {
	user, err := s.lookupTokenUser(ctx, uid)
	if err != nil {
		return err
	}

	if !s.tokens.Check(token.PurposeActivation, user.ID, token.ActivationFingerprint(user), tok) {
		return domain.ErrInvalidToken
	}

	if user.IsActive {
		// Token verified against the active fingerprint, so it was issued
		// after activation; nothing left to do.
		return nil
	}

	user.IsActive = true
	return s.users.Update(ctx, user)
}

// RequestEmailChange stores the requested address and emails a verification
// link to it. The current address is not notified.
func (s *AccountService) RequestEmailChange(ctx context.Context, user *domain.User, newEmail, baseURL string) error {
	newEmail = NormalizeEmail(newEmail)

	if strings.EqualFold(newEmail, user.Email) {
		return domain.ErrSameEmail
	}

	taken, err := s.users.EmailTaken(ctx, newEmail)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateEmail
	}

	user.RequestedEmail = newEmail
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/accounts/verify-email/%s/%s",
		baseURL,
		token.EncodeUID(user.ID),
		s.tokens.Make(token.PurposeEmailChange, user.ID, token.EmailChangeFingerprint(user)),
	)
	body := fmt.Sprintf(
		"Dear %s,\n\nPlease confirm your new GiftWell email address by clicking the below link.\n\n%s\n",
		user.ShortName(), link,
	)
	if err := s.mailer.Send(ctx, newEmail, "Verify your email address", body); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// VerifyEmailChange consumes a verification token, committing the pending
// address. A consumed or never-requested change reports ErrInvalidToken; a
// lost uniqueness race reports ErrDuplicateEmail.
func (s *AccountService) VerifyEmailChange(ctx context.Context, uid, tok string) (*domain.User, error) {
	user, err := s.lookupTokenUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.tokens.Check(token.PurposeEmailChange, user.ID, token.EmailChangeFingerprint(user), tok) {
		return nil, domain.ErrInvalidToken
	}

	if user.RequestedEmail == "" {
		return nil, domain.ErrInvalidToken
	}

	user.Email = user.RequestedEmail
	user.RequestedEmail = ""
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile edits the user's display fields.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, firstName, lastName string) error {
	user.FirstName = firstName
	user.LastName = lastName
	return s.users.Update(ctx, user)
}

// ChangePassword verifies the current password and sets a new one.
func (s *AccountService) ChangePassword(ctx context.Context, user *domain.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.ErrUnauthorized
	}

	if err := s.policy.Validate(newPassword, user); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// StartPasswordReset emails a reset link if the address belongs to an
// active account. It reports success either way.
func (s *AccountService) StartPasswordReset(ctx context.Context, email, baseURL string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	link := fmt.Sprintf("%s/accounts/reset/%s/%s",
		baseURL,
		token.EncodeUID(user.ID),
		s.tokens.Make(token.PurposePasswordReset, user.ID, token.ActivationFingerprint(user)),
	)
	body := fmt.Sprintf(
		"Dear %s,\n\nYou requested a password reset for your GiftWell account. Click the below link to choose a new password.\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
		user.ShortName(), link,
	)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// CheckPasswordReset verifies a reset link without consuming it, for
// rendering the new-password form.
func (s *AccountService) CheckPasswordReset(ctx context.Context, uid, tok string) (*domain.User, error) {
	user, err := s.lookupTokenUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Check(token.PurposePasswordReset, user.ID, token.ActivationFingerprint(user), tok) {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

// CompletePasswordReset sets a new password via a reset token. The hash
// change invalidates the token for any replay.
func (s *AccountService) CompletePasswordReset(ctx context.Context, uid, tok, newPassword string) error {
	user, err := s.CheckPasswordReset(ctx, uid, tok)
	if err != nil {
		return err
	}

	if err := s.policy.Validate(newPassword, user); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// DeleteAccount permanently removes the user. There is no soft delete and
// no undo; permission grants cascade at the storage layer.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	return s.users.Delete(ctx, userID)
}

func (s *AccountService) lookupTokenUser(ctx context.Context, uid string) (*domain.User, error) {
	id, err := token.DecodeUID(uid)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		// An unknown user answers the same as a bad token.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
