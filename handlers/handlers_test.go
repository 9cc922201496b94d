package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/cache"
	"github.com/Mel4sa/WORKNEST-sub000/middleware"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	return "https://media.example.com/" + filename, nil
}

type testServer struct {
	router http.Handler
}

func newTestServer(t *testing.T, pinger Pinger) *testServer {
	t.Helper()
	users := repositories.NewMemoryUserRepository()
	projects := repositories.NewMemoryProjectRepository()
	invitations := repositories.NewMemoryInvitationRepository()

	notifications := services.NewNotificationService(repositories.NewMemoryNotificationRepository(), cache.NewUnreadCache("notifications", time.Minute))
	jwtSvc := services.NewJWTService("handler-test-secret-0123", time.Hour, 30*time.Minute)
	userSvc := services.NewUserService(users, projects, invitations, notifications, jwtSvc, services.LogMailer{}, stubUploader{}, services.UserOptions{
		EnforcePasswordComplexity: true,
		FrontendURL:               "http://localhost:5173",
		MaxAvatarBytes:            1 << 20,
	})
	projectSvc := services.NewProjectService(projects, users, invitations, notifications, nil)
	inviteSvc := services.NewInvitationService(invitations, users, projectSvc, notifications)
	chatSvc := services.NewChatService(repositories.NewMemoryChatRepository(), repositories.NewMemoryMessageRepository(), users, notifications, cache.NewUnreadCache("chat", time.Minute))

	router := NewRouter(Handlers{
		Auth:          NewAuthHandler(userSvc),
		Users:         NewUserHandler(userSvc, 1<<20),
		Projects:      NewProjectHandler(projectSvc),
		Invites:       NewInviteHandler(inviteSvc),
		Notifications: NewNotificationHandler(notifications),
		Chats:         NewChatHandler(chatSvc),
		Health:        NewHealthHandler(pinger),
	}, RouterOptions{
		Authenticator: userSvc,
		AuthLimiter:   middleware.NewLocalLimiter(100),
		CORSOrigin:    "http://localhost:5173",
	})
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	out := map[string]interface{}{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: response is not a JSON object: %s", method, path, rr.Body.String())
		}
	}
	return rr.Code, out
}

func (s *testServer) register(t *testing.T, name string) (token, id string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullname": name,
		"email":    name + "@uni.edu",
		"password": "Str0ng!Pass",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d %v", name, code, body)
	}
	user := body["user"].(map[string]interface{})
	if _, leaked := user["password"]; leaked {
		t.Fatal("password hash must not be serialized")
	}
	return body["token"].(string), user["id"].(string)
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	ownerToken, _ := srv.register(t, "owner")
	bobToken, bobID := srv.register(t, "bob")

	code, body := srv.do(t, http.MethodPost, "/api/projects", ownerToken, map[string]interface{}{
		"title":       "Capstone",
		"description": "Final year project",
		"tags":        []string{"go"},
		"maxMembers":  2,
	})
	if code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d %v", code, body)
	}
	projectID := body["project"].(map[string]interface{})["id"].(string)

	code, body = srv.do(t, http.MethodPost, "/api/invites/send", ownerToken, map[string]string{
		"projectId":  projectID,
		"receiverId": bobID,
	})
	if code != http.StatusCreated {
		t.Fatalf("send invite: expected 201, got %d %v", code, body)
	}
	inviteID := body["invitation"].(map[string]interface{})["id"].(string)

	code, body = srv.do(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	if code != http.StatusOK || body["count"].(float64) != 1 {
		t.Errorf("expected bob to have 1 unread notification, got %d %v", code, body)
	}

	code, _ = srv.do(t, http.MethodPatch, "/api/invites/respond/"+inviteID, ownerToken, map[string]string{"action": "accepted"})
	if code != http.StatusForbidden {
		t.Errorf("sender responding: expected 403, got %d", code)
	}
	code, body = srv.do(t, http.MethodPatch, "/api/invites/respond/"+inviteID, bobToken, map[string]string{"action": "accept"})
	if code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d %v", code, body)
	}
	code, body = srv.do(t, http.MethodPatch, "/api/invites/respond/"+inviteID, bobToken, map[string]string{"action": "accepted"})
	if code != http.StatusBadRequest || body["message"] != "invitation already accepted" {
		t.Errorf("second accept: expected 400 already accepted, got %d %v", code, body)
	}

	code, body = srv.do(t, http.MethodGet, "/api/projects/"+projectID+"/members", "", nil)
	if code != http.StatusOK || len(body["members"].([]interface{})) != 2 {
		t.Errorf("expected 2 members, got %d %v", code, body)
	}

	code, body = srv.do(t, http.MethodGet, "/api/projects/mine", bobToken, nil)
	if code != http.StatusOK || len(body["projects"].([]interface{})) != 1 {
		t.Errorf("expected bob to see 1 project, got %d %v", code, body)
	}
}

func TestErrorMappingOverHTTP(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	token, _ := srv.register(t, "ayse")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"duplicate e-mail", http.MethodPost, "/api/auth/register", "", map[string]string{"fullname": "A", "email": "ayse@uni.edu", "password": "Str0ng!Pass"}, http.StatusBadRequest},
		{"weak password", http.MethodPost, "/api/auth/register", "", map[string]string{"fullname": "B", "email": "b@uni.edu", "password": "12345678"}, http.StatusBadRequest},
		{"unknown login", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@uni.edu", "password": "Str0ng!Pass"}, http.StatusNotFound},
		{"wrong password", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ayse@uni.edu", "password": "Wr0ng!Pass"}, http.StatusUnauthorized},
		{"no token", http.MethodGet, "/api/auth/me", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/auth/me", "nope", nil, http.StatusUnauthorized},
		{"malformed id", http.MethodGet, "/api/users/xyz", token, nil, http.StatusBadRequest},
		{"missing project", http.MethodGet, "/api/projects/507f1f77bcf86cd799439011", "", nil, http.StatusNotFound},
		{"missing notification", http.MethodPatch, "/api/notifications/507f1f77bcf86cd799439011/read", token, nil, http.StatusNotFound},
		{"empty body", http.MethodPost, "/api/projects", token, nil, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nope", "", nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := srv.do(t, tc.method, tc.path, tc.token, tc.body)
			if code != tc.want {
				t.Fatalf("expected %d, got %d %v", tc.want, code, body)
			}
			if _, ok := body["message"]; !ok {
				t.Errorf("error body should carry a message, got %v", body)
			}
		})
	}
}

func TestChatOverHTTP(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	aliceToken, _ := srv.register(t, "alice")
	bobToken, bobID := srv.register(t, "bob")

	code, body := srv.do(t, http.MethodPost, "/api/chats", aliceToken, map[string]string{"userId": bobID})
	if code != http.StatusOK {
		t.Fatalf("open chat: expected 200, got %d %v", code, body)
	}
	chatID := body["chat"].(map[string]interface{})["id"].(string)

	code, body = srv.do(t, http.MethodPost, "/api/chats/"+chatID+"/messages", aliceToken, map[string]string{"content": "hi bob"})
	if code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d %v", code, body)
	}
	messageID := body["message"].(map[string]interface{})["id"].(string)

	code, body = srv.do(t, http.MethodGet, "/api/chats/unread-count", bobToken, nil)
	if code != http.StatusOK || body["count"].(float64) != 1 {
		t.Errorf("expected 1 unread for bob, got %d %v", code, body)
	}
	code, body = srv.do(t, http.MethodGet, "/api/chats/"+chatID+"/messages?page=1&limit=20", bobToken, nil)
	if code != http.StatusOK || len(body["messages"].([]interface{})) != 1 {
		t.Errorf("expected 1 message in history, got %d %v", code, body)
	}
	code, _ = srv.do(t, http.MethodPut, "/api/messages/"+messageID, bobToken, map[string]string{"content": "edited"})
	if code != http.StatusForbidden {
		t.Errorf("editing another user's message: expected 403, got %d", code)
	}
	code, body = srv.do(t, http.MethodPatch, "/api/chats/"+chatID+"/read", bobToken, nil)
	if code != http.StatusOK || body["modified"].(float64) != 1 {
		t.Errorf("mark read: expected 1 modified, got %d %v", code, body)
	}
	code, _ = srv.do(t, http.MethodDelete, "/api/messages/"+messageID, aliceToken, nil)
	if code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", code)
	}
}

func TestAvatarUploadOverHTTP(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	token, _ := srv.register(t, "ece")

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	header.Set("Content-Type", "image/png")
	part, _ := writer.CreatePart(header)
	_, _ = part.Write([]byte("png-bytes"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/avatar", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	var out map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out["avatarUrl"] != "https://media.example.com/me.png" {
		t.Errorf("unexpected avatar url %q", out["avatarUrl"])
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		want   int
	}{
		{"up", fakePinger{}, http.StatusOK},
		{"down", fakePinger{err: errors.New("no primary")}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.pinger)
			code, body := srv.do(t, http.MethodGet, "/health", "", nil)
			if code != tc.want {
				t.Fatalf("expected %d, got %d %v", tc.want, code, body)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.Error{Kind: services.ErrValidation, Message: "x"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrConflict, Message: "x"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrCapacityExceeded, Message: "x"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrInvalidState, Message: "x"}, http.StatusBadRequest},
		{&services.Error{Kind: services.ErrUnauthorized, Message: "x"}, http.StatusUnauthorized},
		{&services.Error{Kind: services.ErrForbidden, Message: "x"}, http.StatusForbidden},
		{&services.Error{Kind: services.ErrNotFound, Message: "x"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", &services.Error{Kind: services.ErrNotFound, Message: "x"}), http.StatusNotFound},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
