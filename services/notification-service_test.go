package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	var created []*models.Notification
	for i := 0; i < 3; i++ {
		n, err := env.notificationSvc.Create(ctx, CreateNotificationInput{
			UserID:  alice.ID,
			Type:    models.NotifProjectUpdate,
			Title:   "Project updated",
			Message: "Capstone has been updated by the owner",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		created = append(created, n)
	}
	if _, err := env.notificationSvc.Create(ctx, CreateNotificationInput{
		UserID:  bob.ID,
		Type:    models.NotifMemberJoined,
		Title:   "New member joined",
		Message: "alice joined Capstone",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	page, err := env.notificationSvc.List(ctx, alice.ID, 1, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Notifications) != 2 || page.UnreadCount != 3 {
		t.Errorf("expected 2 items and 3 unread, got %d items and %d unread", len(page.Notifications), page.UnreadCount)
	}
	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}

	if err := env.notificationSvc.MarkRead(ctx, alice.ID, created[0].ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count, _ := env.notificationSvc.UnreadCount(ctx, alice.ID); count != 2 {
		t.Errorf("expected 2 unread after MarkRead, got %d", count)
	}

	if err := env.notificationSvc.MarkRead(ctx, bob.ID, created[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound marking another user's notification, got %v", err)
	}
	if err := env.notificationSvc.Delete(ctx, bob.ID, created[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting another user's notification, got %v", err)
	}

	modified, err := env.notificationSvc.MarkAllRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if modified != 2 {
		t.Errorf("expected 2 notifications marked, got %d", modified)
	}
	if count, _ := env.notificationSvc.UnreadCount(ctx, alice.ID); count != 0 {
		t.Errorf("expected 0 unread for alice, got %d", count)
	}
	if count, _ := env.notificationSvc.UnreadCount(ctx, bob.ID); count != 1 {
		t.Errorf("MarkAllRead must not touch other users, bob has %d unread", count)
	}

	if err := env.notificationSvc.Delete(ctx, alice.ID, created[2].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	page, _ = env.notificationSvc.List(ctx, alice.ID, 1, 10)
	if page.Pagination.Total != 2 {
		t.Errorf("expected 2 notifications after delete, got %d", page.Pagination.Total)
	}
}

func TestCreateNotificationValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice")

	valid := func() CreateNotificationInput {
		return CreateNotificationInput{UserID: user.ID, Type: models.NotifInviteSent, Title: "Hello", Message: "World"}
	}
	tests := []struct {
		name   string
		mutate func(in *CreateNotificationInput)
	}{
		{"missing user", func(in *CreateNotificationInput) { in.UserID = primitive.NilObjectID }},
		{"missing title", func(in *CreateNotificationInput) { in.Title = "" }},
		{"title too long", func(in *CreateNotificationInput) { in.Title = strings.Repeat("t", 101) }},
		{"message too long", func(in *CreateNotificationInput) { in.Message = strings.Repeat("m", 501) }},
		{"unknown type", func(in *CreateNotificationInput) { in.Type = "birthday" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)
			if _, err := env.notificationSvc.Create(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNotifySwallowsFailures(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice")

	env.notificationSvc.Notify(context.Background(), CreateNotificationInput{UserID: user.ID, Type: "bogus"})
	if got := env.notificationsFor(t, user.ID, "bogus"); got != 0 {
		t.Errorf("expected nothing stored, got %d", got)
	}
}
