package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
	passwordSpecials  = "!@#$%^&*.,?_-+="
	maxSearchResults  = 50
)

// bcrypt refuses inputs longer than this many bytes.
const maxPasswordBytes = 72

type UserOptions struct {
	BlackList                 map[string]bool
	EnforcePasswordComplexity bool
	FrontendURL               string
	MaxAvatarBytes            int64
}

type UserService struct {
	Users         repositories.UserRepository
	Projects      repositories.ProjectRepository
	Invitations   repositories.InvitationRepository
	Notifications *NotificationService
	JWTService    *JWTService
	Mailer        Mailer
	Media         MediaUploader
	Options       UserOptions
	hashCost      int
	now           func() time.Time
}

func NewUserService(
	users repositories.UserRepository,
	projects repositories.ProjectRepository,
	invitations repositories.InvitationRepository,
	notifications *NotificationService,
	jwtService *JWTService,
	mailer Mailer,
	media MediaUploader,
	opts UserOptions,
) *UserService {
	if opts.BlackList == nil {
		opts.BlackList = DefaultBlackList()
	}
	return &UserService{
		Users:         users,
		Projects:      projects,
		Invitations:   invitations,
		Notifications: notifications,
		JWTService:    jwtService,
		Mailer:        mailer,
		Media:         media,
		Options:       opts,
		hashCost:      bcrypt.DefaultCost,
		now:           time.Now,
	}
}

type RegisterInput struct {
	Fullname string `json:"fullname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type SocialLinksInput struct {
	GitHub   string `json:"github" validate:"omitempty,url"`
	LinkedIn string `json:"linkedin" validate:"omitempty,url"`
	Website  string `json:"website" validate:"omitempty,url"`
}

type ProfileInput struct {
	Fullname    *string           `json:"fullname" validate:"omitempty,max=100"`
	Bio         *string           `json:"bio" validate:"omitempty,max=500"`
	Skills      []string          `json:"skills" validate:"omitempty,max=30,dive,max=50"`
	University  *string           `json:"university" validate:"omitempty,max=150"`
	Department  *string           `json:"department" validate:"omitempty,max=150"`
	SocialLinks *SocialLinksInput `json:"socialLinks"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func validationErr(err error) error {
	return newError(ErrValidation, "%s", err.Error())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the length bounds always, and the complexity
// and blacklist rules when EnforcePasswordComplexity is set.
func (s *UserService) ValidatePassword(password string) error {
	if n := len([]rune(password)); n < MinPasswordLength || n > MaxPasswordLength {
		return newError(ErrValidation, "password must be between %d and %d characters long", MinPasswordLength, MaxPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return newError(ErrValidation, "password must not exceed %d bytes", maxPasswordBytes)
	}
	if !s.Options.EnforcePasswordComplexity {
		return nil
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, char):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return newError(ErrValidation, "password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return newError(ErrValidation, "password must contain at least one number")
	}
	if !hasSpecial {
		return newError(ErrValidation, "password must contain at least one special character")
	}
	if s.Options.BlackList[password] {
		return newError(ErrValidation, "password is too common, please choose a stronger one")
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = normalizeEmail(in.Email)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}
	if err := s.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.Users.FindByEmail(ctx, in.Email); err == nil {
		return nil, newError(ErrConflict, "user already exists with this email")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		Fullname:  in.Fullname,
		Email:     in.Email,
		Password:  hashed,
		Skills:    []string{},
		Projects:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "user already exists with this email")
		}
		return nil, err
	}

	token, err := s.JWTService.GenerateAuthToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.sendEmail(ctx, models.EmailJob{
		Type:      models.EmailWelcome,
		To:        user.Email,
		Subject:   "Welcome to WorkNest",
		Data:      map[string]string{"fullname": user.Fullname},
		CreatedAt: now,
	})
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered", user.ID.Hex())
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}

	user, err := s.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Invalid password for user %s", user.ID.Hex())
		return nil, newError(ErrUnauthorized, "invalid credentials")
	}

	token, err := s.JWTService.GenerateAuthToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its user. Any failure is ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.JWTService.ValidateToken(token, PurposeAuth)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, newError(ErrUnauthorized, "invalid token")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*models.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}

	patch := models.ProfileUpdate{
		Bio:        in.Bio,
		Skills:     in.Skills,
		University: in.University,
		Department: in.Department,
	}
	if in.Fullname != nil {
		name := strings.TrimSpace(*in.Fullname)
		if name == "" {
			return nil, newError(ErrValidation, "fullname cannot be empty")
		}
		patch.Fullname = &name
	}
	if in.SocialLinks != nil {
		patch.SocialLinks = &models.SocialLinks{
			GitHub:   in.SocialLinks.GitHub,
			LinkedIn: in.SocialLinks.LinkedIn,
			Website:  in.SocialLinks.Website,
		}
	}
	if patch.IsEmpty() {
		return nil, newError(ErrValidation, "no fields to update")
	}

	user, err := s.Users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, in ChangePasswordInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return validationErr(err)
	}
	if err := s.ValidatePassword(in.NewPassword); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		return newError(ErrUnauthorized, "current password is incorrect")
	}

	hashed, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, userID, hashed)
}

// ForgotPassword never reveals whether the address is registered.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return newError(ErrValidation, "email is required")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.Infof("Event ID: PASSWORD_RESET_UNKNOWN_EMAIL, Description: Reset requested for unknown address")
			return nil
		}
		return err
	}

	token, err := s.JWTService.GeneratePasswordResetToken(user.ID, user.Password)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	link := strings.TrimRight(s.Options.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)

	s.sendEmail(ctx, models.EmailJob{
		Type:      models.EmailPasswordReset,
		To:        user.Email,
		Subject:   "Reset your WorkNest password",
		Data:      map[string]string{"fullname": user.Fullname, "link": link},
		CreatedAt: s.now(),
	})
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.JWTService.ValidateToken(token, PurposePasswordReset)
	if err != nil {
		return err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return newError(ErrUnauthorized, "invalid token")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(ErrUnauthorized, "invalid token")
		}
		return err
	}
	if claims.Fingerprint != PasswordFingerprint(user.Password) {
		return newError(ErrUnauthorized, "reset token is no longer valid")
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, userID, hashed)
}

func (s *UserService) SearchUsers(ctx context.Context, callerID primitive.ObjectID, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrValidation, "search query is required")
	}
	if limit < 1 {
		limit = models.DefaultPageSize
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}
	return s.Users.Search(ctx, query, callerID, limit)
}

func (s *UserService) UploadAvatar(ctx context.Context, userID primitive.ObjectID, filename, contentType string, size int64, body io.Reader) (string, error) {
	if size <= 0 {
		return "", newError(ErrValidation, "file is empty")
	}
	if limit := s.Options.MaxAvatarBytes; limit > 0 && size > limit {
		return "", newError(ErrValidation, "file exceeds the %d MB limit", limit>>20)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", newError(ErrValidation, "only image uploads are allowed")
	}
	if s.Media == nil {
		return "", errors.New("media service is not configured")
	}

	avatarURL, err := s.Media.Upload(ctx, filename, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.Users.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return "", err
	}
	return avatarURL, nil
}

// DeleteAccount re-checks the password, detaches the user from every
// project roster, deactivates the projects they own and removes the user.
func (s *UserService) DeleteAccount(ctx context.Context, userID primitive.ObjectID, password string) error {
	if password == "" {
		return newError(ErrValidation, "password is required")
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return newError(ErrUnauthorized, "password is incorrect")
	}

	owned, err := s.Projects.ListOwnedBy(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range owned {
		if err := s.Projects.SetActive(ctx, p.ID, false); err != nil {
			return err
		}
	}
	if err := s.Projects.RemoveMemberFromAll(ctx, userID); err != nil {
		return err
	}
	if err := s.Invitations.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if s.Notifications != nil {
		if err := s.Notifications.DeleteAllForUser(ctx, userID); err != nil {
			logging.Logger.Warnf("Event ID: ACCOUNT_NOTIFICATIONS_CLEANUP_FAILED, Description: %v", err)
		}
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: ACCOUNT_DELETED, Description: User %s deleted, %d owned projects deactivated", userID.Hex(), len(owned))
	return nil
}

func (s *UserService) sendEmail(ctx context.Context, job models.EmailJob) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, job); err != nil {
		logging.Logger.Warnf("Event ID: EMAIL_JOB_FAILED, Description: Could not enqueue %s e-mail: %v", job.Type, err)
	}
}
