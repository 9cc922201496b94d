package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"
)

const strongPassword = "Str0ng!Pass"

// Twenty runes, 76 bytes: within the character bounds, past bcrypt's limit.
var wideRunePassword = "𝐀１!" + strings.Repeat("😀", 17)

func register(t *testing.T, env *testEnv, name string) *AuthResult {
	t.Helper()
	res, err := env.userSvc.Register(context.Background(), RegisterInput{
		Fullname: name,
		Email:    name + "@uni.edu",
		Password: strongPassword,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res
}

func TestValidatePassword(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name     string
		password string
		enforce  bool
		wantErr  bool
	}{
		{"too short", "Ab1!", false, true},
		{"too long", strings.Repeat("Ab1!", 6), false, true},
		{"plain allowed when relaxed", "12345678", false, false},
		{"plain rejected when enforced", "12345678", true, true},
		{"missing uppercase", "str0ng!pass", true, true},
		{"missing digit", "Strong!Pass", true, true},
		{"missing special", "Str0ngPass", true, true},
		{"blacklisted", "Passw0rd!", true, true},
		{"strong", strongPassword, true, false},
		{"multi-byte over bcrypt limit relaxed", wideRunePassword, false, true},
		{"multi-byte over bcrypt limit enforced", wideRunePassword, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env.userSvc.Options.EnforcePasswordComplexity = tc.enforce
			err := env.userSvc.ValidatePassword(tc.password)
			if tc.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := register(t, env, "ayse")
	if res.Token == "" || res.User.Password == strongPassword {
		t.Fatalf("expected a token and a hashed password, got %+v", res)
	}
	jobs := env.mailer.Jobs()
	if len(jobs) != 1 || jobs[0].Type != models.EmailWelcome || jobs[0].To != "ayse@uni.edu" {
		t.Errorf("expected one welcome e-mail, got %+v", jobs)
	}

	_, err := env.userSvc.Register(ctx, RegisterInput{Fullname: "Other", Email: "  AYSE@uni.edu ", Password: strongPassword})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate e-mail, got %v", err)
	}
	if _, err := env.userSvc.Register(ctx, RegisterInput{Fullname: "Wide", Email: "wide@uni.edu", Password: wideRunePassword}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a password over 72 bytes, got %v", err)
	}
	if _, err := env.userSvc.Register(ctx, RegisterInput{Fullname: "X", Email: "not-an-email", Password: strongPassword}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad e-mail, got %v", err)
	}

	login, err := env.userSvc.Login(ctx, LoginInput{Email: "Ayse@Uni.edu", Password: strongPassword})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	user, err := env.userSvc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != res.User.ID {
		t.Errorf("token resolved to %s, want %s", user.ID.Hex(), res.User.ID.Hex())
	}

	if _, err := env.userSvc.Login(ctx, LoginInput{Email: "ayse@uni.edu", Password: "Wr0ng!Pass"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	if _, err := env.userSvc.Login(ctx, LoginInput{Email: "nobody@uni.edu", Password: strongPassword}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown e-mail, got %v", err)
	}
	if _, err := env.userSvc.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for garbage token, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res := register(t, env, "mert")

	if err := env.userSvc.ForgotPassword(ctx, "ghost@uni.edu"); err != nil {
		t.Fatalf("unknown address should not error: %v", err)
	}
	if err := env.userSvc.ForgotPassword(ctx, "mert@uni.edu"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	jobs := env.mailer.Jobs()
	if len(jobs) != 2 || jobs[1].Type != models.EmailPasswordReset {
		t.Fatalf("expected a reset e-mail after the welcome one, got %+v", jobs)
	}
	link, err := url.Parse(jobs[1].Data["link"])
	if err != nil {
		t.Fatalf("bad reset link: %v", err)
	}
	if link.Path != "/reset-password" {
		t.Errorf("unexpected reset path %q", link.Path)
	}
	token := link.Query().Get("token")

	if _, err := env.userSvc.Authenticate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("reset token must not authenticate, got %v", err)
	}
	if err := env.userSvc.ResetPassword(ctx, token, "weak"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for weak password, got %v", err)
	}
	if err := env.userSvc.ResetPassword(ctx, token, "N3w!Secret"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if err := env.userSvc.ResetPassword(ctx, token, "An0ther!One"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected used token to be rejected, got %v", err)
	}
	if _, err := env.userSvc.Login(ctx, LoginInput{Email: res.User.Email, Password: "N3w!Secret"}); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	register(t, env, "deniz")

	if err := env.userSvc.ForgotPassword(ctx, "deniz@uni.edu"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	link, _ := url.Parse(env.mailer.Jobs()[1].Data["link"])
	env.clock.Advance(31 * time.Minute)

	err := env.userSvc.ResetPassword(ctx, link.Query().Get("token"), "N3w!Secret")
	if !errors.Is(err, ErrUnauthorized) || !strings.Contains(err.Error(), "expired") {
		t.Errorf("expected expired token error, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res := register(t, env, "ece")

	tests := []struct {
		name string
		in   ChangePasswordInput
		want error
	}{
		{"mismatched confirmation", ChangePasswordInput{strongPassword, "N3w!Secret", "N3w!SecreT"}, ErrValidation},
		{"weak new password", ChangePasswordInput{strongPassword, "weakpass", "weakpass"}, ErrValidation},
		{"wrong current password", ChangePasswordInput{"Wr0ng!Pass", "N3w!Secret", "N3w!Secret"}, ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := env.userSvc.ChangePassword(ctx, res.User.ID, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := env.userSvc.ChangePassword(ctx, res.User.ID, ChangePasswordInput{strongPassword, "N3w!Secret", "N3w!Secret"}); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := env.userSvc.Login(ctx, LoginInput{Email: res.User.Email, Password: "N3w!Secret"}); err != nil {
		t.Errorf("login with changed password failed: %v", err)
	}
}

func TestUpdateProfileAndSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	env.addUser(t, "alicia")
	env.addUser(t, "bob")

	bio := "Backend enthusiast"
	user, err := env.userSvc.UpdateProfile(ctx, alice.ID, ProfileInput{
		Bio:         &bio,
		Skills:      []string{"go", "mongodb"},
		SocialLinks: &SocialLinksInput{GitHub: "https://github.com/alice"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Bio != bio || len(user.Skills) != 2 || user.SocialLinks.GitHub != "https://github.com/alice" {
		t.Errorf("profile not applied: %+v", user)
	}
	if _, err := env.userSvc.UpdateProfile(ctx, alice.ID, ProfileInput{SocialLinks: &SocialLinksInput{GitHub: "nope"}}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad url, got %v", err)
	}
	if _, err := env.userSvc.UpdateProfile(ctx, alice.ID, ProfileInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty profile patch, got %v", err)
	}

	found, err := env.userSvc.SearchUsers(ctx, alice.ID, "ali", 10)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(found) != 1 || found[0].Fullname != "alicia" {
		t.Errorf("expected only alicia (caller excluded), got %+v", found)
	}
	if _, err := env.userSvc.SearchUsers(ctx, alice.ID, "  ", 10); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank query, got %v", err)
	}
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")

	tests := []struct {
		name        string
		contentType string
		size        int64
	}{
		{"empty file", "image/png", 0},
		{"too large", "image/png", 6 << 20},
		{"not an image", "application/pdf", 1024},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.userSvc.UploadAvatar(ctx, alice.ID, "a.png", tc.contentType, tc.size, strings.NewReader("x"))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	avatarURL, err := env.userSvc.UploadAvatar(ctx, alice.ID, "alice.png", "image/png", 4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("UploadAvatar failed: %v", err)
	}
	stored, _ := env.users.FindByID(ctx, alice.ID)
	if stored.AvatarURL != avatarURL || avatarURL != "https://media.example.com/avatars/alice.png" {
		t.Errorf("avatar not stored: got %q, stored %q", avatarURL, stored.AvatarURL)
	}
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := register(t, env, "owner").User
	member := register(t, env, "member")
	other := env.addUser(t, "other")

	owned := env.addProject(t, owner.ID, 4)
	joined := env.addProject(t, other.ID, 4)
	if _, err := env.projectSvc.Join(ctx, owner.ID, joined.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := env.projectSvc.Join(ctx, member.User.ID, owned.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	pending := env.addProject(t, other.ID, 4)
	if _, err := env.inviteSvc.Send(ctx, other.ID, SendInviteInput{ProjectID: pending.ID.Hex(), ReceiverID: owner.ID.Hex()}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if err := env.userSvc.DeleteAccount(ctx, owner.ID, "Wr0ng!Pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	if err := env.userSvc.DeleteAccount(ctx, owner.ID, strongPassword); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if _, err := env.users.FindByID(ctx, owner.ID); err == nil {
		t.Error("user should be removed")
	}
	if stored, _ := env.projects.FindByID(ctx, owned.ID); stored.IsActive {
		t.Error("owned project should be deactivated")
	}
	for _, id := range env.memberIDs(t, joined.ID) {
		if id == owner.ID {
			t.Error("deleted user should leave joined rosters")
		}
	}
	if invites, _ := env.invitations.ListByReceiver(ctx, owner.ID, ""); len(invites) != 0 {
		t.Errorf("expected invitations removed, got %d", len(invites))
	}
	if got := env.notificationsFor(t, owner.ID, models.NotifInviteSent); got != 0 {
		t.Errorf("expected notifications removed, got %d", got)
	}
	if _, err := env.userSvc.Authenticate(ctx, member.Token); err != nil {
		t.Errorf("other accounts must keep working: %v", err)
	}
}
