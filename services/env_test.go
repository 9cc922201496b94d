package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/cache"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	jobs []models.EmailJob
}

func (m *recordingMailer) Send(_ context.Context, job models.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *recordingMailer) Jobs() []models.EmailJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EmailJob(nil), m.jobs...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ProjectActivity
}

func (p *recordingPublisher) Publish(_ context.Context, a models.ProjectActivity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, a)
	return nil
}

type fakeUploader struct {
	uploaded []string
}

func (u *fakeUploader) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.uploaded = append(u.uploaded, filename)
	return "https://media.example.com/avatars/" + filename, nil
}

type testEnv struct {
	clock *fakeClock

	users         *repositories.MemoryUserRepository
	projects      *repositories.MemoryProjectRepository
	invitations   *repositories.MemoryInvitationRepository
	notifications *repositories.MemoryNotificationRepository
	chats         *repositories.MemoryChatRepository
	messages      *repositories.MemoryMessageRepository

	mailer   *recordingMailer
	activity *recordingPublisher
	uploader *fakeUploader

	notificationSvc *NotificationService
	userSvc         *UserService
	projectSvc      *ProjectService
	inviteSvc       *InvitationService
	chatSvc         *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:         &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		users:         repositories.NewMemoryUserRepository(),
		projects:      repositories.NewMemoryProjectRepository(),
		invitations:   repositories.NewMemoryInvitationRepository(),
		notifications: repositories.NewMemoryNotificationRepository(),
		chats:         repositories.NewMemoryChatRepository(),
		messages:      repositories.NewMemoryMessageRepository(),
		mailer:        &recordingMailer{},
		activity:      &recordingPublisher{},
		uploader:      &fakeUploader{},
	}

	env.notificationSvc = NewNotificationService(env.notifications, cache.NewUnreadCache("notifications", time.Minute))
	env.notificationSvc.now = env.clock.Now

	jwtSvc := NewJWTService("test-secret-0123456789", 7*24*time.Hour, 30*time.Minute)
	jwtSvc.now = env.clock.Now

	env.userSvc = NewUserService(env.users, env.projects, env.invitations, env.notificationSvc, jwtSvc,
		env.mailer, env.uploader, UserOptions{
			EnforcePasswordComplexity: true,
			FrontendURL:               "http://localhost:5173",
			MaxAvatarBytes:            5 << 20,
		})
	env.userSvc.hashCost = bcrypt.MinCost
	env.userSvc.now = env.clock.Now

	env.projectSvc = NewProjectService(env.projects, env.users, env.invitations, env.notificationSvc, env.activity)
	env.projectSvc.now = env.clock.Now

	env.inviteSvc = NewInvitationService(env.invitations, env.users, env.projectSvc, env.notificationSvc)
	env.inviteSvc.now = env.clock.Now

	env.chatSvc = NewChatService(env.chats, env.messages, env.users, env.notificationSvc, cache.NewUnreadCache("chat", time.Minute))
	env.chatSvc.now = env.clock.Now
	return env
}

// addUser stores a user directly, skipping bcrypt.
func (env *testEnv) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		Fullname:  name,
		Email:     name + "@example.com",
		CreatedAt: env.clock.Now(),
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to add user %s: %v", name, err)
	}
	return user
}

func (env *testEnv) addProject(t *testing.T, owner primitive.ObjectID, maxMembers int) *models.Project {
	t.Helper()
	project, err := env.projectSvc.Create(context.Background(), owner, CreateProjectInput{
		Title:       "Capstone",
		Description: "Final year project",
		Tags:        []string{"go"},
		MaxMembers:  &maxMembers,
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func (env *testEnv) notificationsFor(t *testing.T, userID primitive.ObjectID, kind models.NotificationType) int {
	t.Helper()
	list, _, err := env.notifications.ListByUser(context.Background(), userID, 1, 100)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	n := 0
	for _, item := range list {
		if item.Type == kind {
			n++
		}
	}
	return n
}

func (env *testEnv) memberIDs(t *testing.T, projectID primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	project, err := env.projects.FindByID(context.Background(), projectID)
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}
	return project.MemberIDs()
}
