package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/metrics"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvitationService struct {
	Invitations   repositories.InvitationRepository
	Users         repositories.UserRepository
	Projects      *ProjectService
	Notifications *NotificationService
	now           func() time.Time
}

func NewInvitationService(
	invitations repositories.InvitationRepository,
	users repositories.UserRepository,
	projects *ProjectService,
	notifications *NotificationService,
) *InvitationService {
	return &InvitationService{
		Invitations:   invitations,
		Users:         users,
		Projects:      projects,
		Notifications: notifications,
		now:           time.Now,
	}
}

type SendInviteInput struct {
	ProjectID  string `json:"projectId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Message    string `json:"message"`
}

func parseID(raw, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, newError(ErrValidation, "invalid %s", name)
	}
	return id, nil
}

// Send creates a pending invitation. Every check runs before the insert, so
// a rejected call leaves neither an invitation nor a notification behind.
func (s *InvitationService) Send(ctx context.Context, senderID primitive.ObjectID, in SendInviteInput) (*models.Invitation, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}
	if utf8.RuneCountInString(in.Message) > models.MaxInviteMessageLength {
		return nil, newError(ErrValidation, "message cannot exceed %d characters", models.MaxInviteMessageLength)
	}
	projectID, err := parseID(in.ProjectID, "project id")
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID(in.ReceiverID, "receiver id")
	if err != nil {
		return nil, err
	}
	if receiverID == senderID {
		return nil, newError(ErrValidation, "you cannot invite yourself")
	}

	project, err := s.Projects.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	if !project.IsOwner(senderID) {
		return nil, newError(ErrForbidden, "only the project owner can send invitations")
	}
	if !project.Status.AcceptsMembers() {
		return nil, newError(ErrInvalidState, "cannot invite users to a %s project", project.Status)
	}
	if project.IsMember(receiverID) {
		return nil, newError(ErrConflict, "user is already a member of this project")
	}
	if _, err := s.Invitations.FindPending(ctx, projectID, receiverID); err == nil {
		return nil, newError(ErrConflict, "an invitation is already pending for this user")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	message := in.Message
	if message == "" {
		message = truncate(fmt.Sprintf("You have been invited to join %s", project.Title), models.MaxStoredInviteMessageLength)
	}
	invitation := &models.Invitation{
		Project:   projectID,
		Sender:    senderID,
		Receiver:  receiverID,
		Status:    models.InvitationPending,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.Invitations.Create(ctx, invitation); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "an invitation is already pending for this user")
		}
		return nil, err
	}
	metrics.InvitationsSent.Inc()

	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:         receiverID,
		Type:           models.NotifInviteSent,
		Title:          "New project invitation",
		Message:        fmt.Sprintf("%s invited you to join %s", s.Projects.displayName(ctx, senderID), truncate(project.Title, 100)),
		RelatedProject: &project.ID,
		RelatedUser:    &senderID,
		RelatedInvite:  &invitation.ID,
	})
	s.Projects.publish(ctx, projectID, models.ActivityInviteSent, senderID, &receiverID, "invitation sent")
	logging.Logger.Infof("Event ID: INVITE_SENT, Description: Invitation %s for project %s sent to %s", invitation.ID.Hex(), projectID.Hex(), receiverID.Hex())
	return invitation, nil
}

// Respond moves a pending invitation to accepted or declined. The status
// flip is conditional on pending, so only one response ever takes effect;
// later calls fail with ErrInvalidState and have no side effects. If the
// membership insert fails after an accept, the flip is reverted.
func (s *InvitationService) Respond(ctx context.Context, actorID, inviteID primitive.ObjectID, action string) (*models.Invitation, error) {
	invitation, err := s.Invitations.FindByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "invitation not found")
		}
		return nil, err
	}
	if invitation.Receiver != actorID {
		return nil, newError(ErrForbidden, "you can only respond to your own invitations")
	}
	target := models.InvitationStatus(action)
	if !target.IsTerminal() {
		return nil, newError(ErrValidation, "action must be accepted or declined")
	}

	updated, err := s.Invitations.Transition(ctx, inviteID, models.InvitationPending, target, s.now())
	if err != nil {
		if !errors.Is(err, repositories.ErrConditionFailed) {
			return nil, err
		}
		status := invitation.Status
		if current, err := s.Invitations.FindByID(ctx, inviteID); err == nil {
			status = current.Status
		}
		metrics.InvitationResponses.WithLabelValues(action, "rejected").Inc()
		return nil, newError(ErrInvalidState, "invitation already %s", status)
	}

	if target == models.InvitationAccepted {
		if err := s.accept(ctx, updated); err != nil {
			s.revert(ctx, updated)
			metrics.InvitationResponses.WithLabelValues(action, "compensated").Inc()
			return nil, err
		}
	}
	metrics.InvitationResponses.WithLabelValues(action, "ok").Inc()

	projectTitle := "the project"
	if project, err := s.Projects.Projects.FindByID(ctx, updated.Project); err == nil {
		projectTitle = project.Title
	}
	notifType, verb := models.NotifInviteDeclined, "declined"
	if target == models.InvitationAccepted {
		notifType, verb = models.NotifInviteAccepted, "accepted"
	}
	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:         updated.Sender,
		Type:           notifType,
		Title:          "Invitation " + verb,
		Message:        fmt.Sprintf("%s %s your invitation to %s", s.Projects.displayName(ctx, actorID), verb, truncate(projectTitle, 100)),
		RelatedProject: &updated.Project,
		RelatedUser:    &actorID,
		RelatedInvite:  &updated.ID,
	})
	s.Projects.publish(ctx, updated.Project, models.ActivityInviteResponded, actorID, &actorID, verb)
	return updated, nil
}

func (s *InvitationService) accept(ctx context.Context, invitation *models.Invitation) error {
	project, err := s.Projects.load(ctx, invitation.Project)
	if err != nil {
		return err
	}
	if !project.Status.AcceptsMembers() {
		return newError(ErrInvalidState, "cannot join a %s project", project.Status)
	}
	if project.IsMember(invitation.Receiver) {
		return nil
	}
	if _, err := s.Projects.admit(ctx, invitation.Project, invitation.Receiver, "invite"); err != nil && !errors.Is(err, errAlreadyMember) {
		return err
	}
	return nil
}

func (s *InvitationService) revert(ctx context.Context, invitation *models.Invitation) {
	if _, err := s.Invitations.Transition(ctx, invitation.ID, invitation.Status, models.InvitationPending, s.now()); err != nil {
		logging.Logger.Errorf("Event ID: INVITE_COMPENSATION_FAILED, Description: Could not revert invitation %s to pending: %v", invitation.ID.Hex(), err)
		return
	}
	logging.Logger.Warnf("Event ID: INVITE_COMPENSATED, Description: Invitation %s reverted to pending after failed admission", invitation.ID.Hex())
}

func parseStatusFilter(raw string) (models.InvitationStatus, error) {
	status := models.InvitationStatus(strings.TrimSpace(raw))
	if status != "" && !status.IsValid() {
		return "", newError(ErrValidation, "invalid status %q", raw)
	}
	return status, nil
}

func (s *InvitationService) Received(ctx context.Context, userID primitive.ObjectID, status string) ([]models.InvitationView, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	invitations, err := s.Invitations.ListByReceiver(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, invitations, func(inv models.Invitation) primitive.ObjectID { return inv.Sender }, true)
}

func (s *InvitationService) Sent(ctx context.Context, userID primitive.ObjectID, status string) ([]models.InvitationView, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	invitations, err := s.Invitations.ListBySender(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, invitations, func(inv models.Invitation) primitive.ObjectID { return inv.Receiver }, false)
}

// views resolves project summaries and the counterpart user for each invitation.
func (s *InvitationService) views(ctx context.Context, invitations []models.Invitation, counterpart func(models.Invitation) primitive.ObjectID, received bool) ([]models.InvitationView, error) {
	userIDs := make([]primitive.ObjectID, 0, len(invitations))
	for _, inv := range invitations {
		userIDs = append(userIDs, counterpart(inv))
	}
	users, err := s.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	summaries := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}

	projects := make(map[primitive.ObjectID]*models.ProjectSummary)
	views := make([]models.InvitationView, 0, len(invitations))
	for _, inv := range invitations {
		view := models.InvitationView{Invitation: inv}

		summary, seen := projects[inv.Project]
		if !seen {
			if project, err := s.Projects.Projects.FindByID(ctx, inv.Project); err == nil {
				ps := project.Summary()
				summary = &ps
			}
			projects[inv.Project] = summary
		}
		view.ProjectInfo = summary

		if u, ok := summaries[counterpart(inv)]; ok {
			if received {
				view.SenderInfo = &u
			} else {
				view.ReceiverInfo = &u
			}
		}
		views = append(views, view)
	}
	return views, nil
}
