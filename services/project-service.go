package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/metrics"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errAlreadyMember is returned by admit when the user already holds a slot.
// Invitation acceptance treats it as success.
var errAlreadyMember = &Error{Kind: ErrConflict, Message: "user is already a member of this project"}

type ProjectService struct {
	Projects      repositories.ProjectRepository
	Users         repositories.UserRepository
	Invitations   repositories.InvitationRepository
	Notifications *NotificationService
	Activity      ActivityPublisher
	now           func() time.Time
}

func NewProjectService(
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	invitations repositories.InvitationRepository,
	notifications *NotificationService,
	activity ActivityPublisher,
) *ProjectService {
	if activity == nil {
		activity = NoopActivityPublisher{}
	}
	return &ProjectService{
		Projects:      projects,
		Users:         users,
		Invitations:   invitations,
		Notifications: notifications,
		Activity:      activity,
		now:           time.Now,
	}
}

type CreateProjectInput struct {
	Title          string     `json:"title" validate:"required,max=100"`
	Description    string     `json:"description" validate:"required,max=2000"`
	Tags           []string   `json:"tags" validate:"required,min=1,max=10,dive,required,max=30"`
	RequiredSkills []string   `json:"requiredSkills" validate:"omitempty,max=20,dive,max=50"`
	Status         string     `json:"status"`
	MaxMembers     *int       `json:"maxMembers"`
	Deadline       *time.Time `json:"deadline"`
	Visibility     string     `json:"visibility"`
}

type UpdateProjectInput struct {
	Title          *string    `json:"title" validate:"omitempty,max=100"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	Tags           []string   `json:"tags" validate:"omitempty,min=1,max=10,dive,required,max=30"`
	RequiredSkills []string   `json:"requiredSkills" validate:"omitempty,max=20,dive,max=50"`
	Status         *string    `json:"status"`
	MaxMembers     *int       `json:"maxMembers"`
	Deadline       *time.Time `json:"deadline"`
	Visibility     *string    `json:"visibility"`
}

type ListProjectsInput struct {
	Status string
	Tags   string
	Search string
	Page   int
	Limit  int
}

type ProjectPage struct {
	Projects   []models.Project  `json:"projects"`
	Pagination models.Pagination `json:"pagination"`
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func checkMaxMembers(n int) error {
	if n < models.MinMaxMembers || n > models.MaxMaxMembers {
		return newError(ErrValidation, "maxMembers must be between %d and %d", models.MinMaxMembers, models.MaxMaxMembers)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (s *ProjectService) List(ctx context.Context, in ListProjectsInput) (*ProjectPage, error) {
	page, limit := models.NormalizePage(in.Page, in.Limit)
	if in.Status != "" && !models.ProjectStatus(in.Status).IsValid() {
		return nil, newError(ErrValidation, "invalid status %q", in.Status)
	}
	projects, total, err := s.Projects.List(ctx, repositories.ProjectFilter{
		Status: in.Status,
		Tags:   splitTags(in.Tags),
		Search: strings.TrimSpace(in.Search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &ProjectPage{Projects: projects, Pagination: models.NewPagination(page, limit, total)}, nil
}

// load returns the project if it exists and is active.
func (s *ProjectService) load(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	project, err := s.Projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "project not found")
		}
		return nil, err
	}
	if !project.IsActive {
		return nil, newError(ErrNotFound, "project not found")
	}
	return project, nil
}

// Get hides private projects from non-members behind NotFound.
func (s *ProjectService) Get(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.VisibleTo(viewer) {
		return nil, newError(ErrNotFound, "project not found")
	}
	return project, nil
}

func (s *ProjectService) Members(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) ([]models.MemberView, error) {
	project, err := s.Get(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	users, err := s.Users.FindByIDs(ctx, project.MemberIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.MemberView, 0, len(project.Members))
	for _, m := range project.Members {
		summary := models.UserSummary{ID: m.User}
		if u, ok := byID[m.User]; ok {
			summary = u.Summary()
		}
		views = append(views, models.MemberView{User: summary, JoinedAt: m.JoinedAt, Role: m.Role})
	}
	return views, nil
}

func (s *ProjectService) Mine(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return s.Projects.ListByMember(ctx, userID)
}

func (s *ProjectService) Create(ctx context.Context, ownerID primitive.ObjectID, in CreateProjectInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}

	status := models.StatusPlanned
	if in.Status != "" {
		status = models.ProjectStatus(in.Status)
		if !status.IsValid() {
			return nil, newError(ErrValidation, "invalid status %q", in.Status)
		}
	}
	visibility := models.VisibilityPublic
	if in.Visibility != "" {
		visibility = models.Visibility(in.Visibility)
		if !visibility.IsValid() {
			return nil, newError(ErrValidation, "invalid visibility %q", in.Visibility)
		}
	}
	maxMembers := models.DefaultMaxMembers
	if in.MaxMembers != nil {
		if err := checkMaxMembers(*in.MaxMembers); err != nil {
			return nil, err
		}
		maxMembers = *in.MaxMembers
	}
	if in.RequiredSkills == nil {
		in.RequiredSkills = []string{}
	}

	now := s.now()
	project := &models.Project{
		Title:          in.Title,
		Description:    in.Description,
		Tags:           in.Tags,
		RequiredSkills: in.RequiredSkills,
		Status:         status,
		Owner:          ownerID,
		Members:        []models.Member{{User: ownerID, JoinedAt: now, Role: models.RoleOwner}},
		MaxMembers:     maxMembers,
		Deadline:       in.Deadline,
		Visibility:     visibility,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Projects.Create(ctx, project); err != nil {
		return nil, err
	}
	if err := s.Users.AddProject(ctx, ownerID, project.ID); err != nil {
		logging.Logger.Warnf("Event ID: PROJECT_BACKREF_FAILED, Description: Could not link project %s to owner: %v", project.ID.Hex(), err)
	}

	s.publish(ctx, project.ID, models.ActivityProjectCreated, ownerID, nil, project.Title)
	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by %s", project.ID.Hex(), ownerID.Hex())
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, actorID, id primitive.ObjectID, in UpdateProjectInput) (*models.Project, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationErr(err)
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(actorID) {
		return nil, newError(ErrForbidden, "only the project owner can update the project")
	}

	patch := models.ProjectUpdate{
		Tags:           in.Tags,
		RequiredSkills: in.RequiredSkills,
		Deadline:       in.Deadline,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, newError(ErrValidation, "title cannot be empty")
		}
		patch.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return nil, newError(ErrValidation, "description cannot be empty")
		}
		patch.Description = &desc
	}
	if in.Status != nil {
		status := models.ProjectStatus(*in.Status)
		if !status.IsValid() {
			return nil, newError(ErrValidation, "invalid status %q", *in.Status)
		}
		patch.Status = &status
	}
	if in.Visibility != nil {
		visibility := models.Visibility(*in.Visibility)
		if !visibility.IsValid() {
			return nil, newError(ErrValidation, "invalid visibility %q", *in.Visibility)
		}
		patch.Visibility = &visibility
	}
	if in.MaxMembers != nil {
		if err := checkMaxMembers(*in.MaxMembers); err != nil {
			return nil, err
		}
		if *in.MaxMembers < len(project.Members) {
			return nil, newError(ErrValidation, "maxMembers cannot be lower than the current member count (%d)", len(project.Members))
		}
		patch.MaxMembers = in.MaxMembers
	}
	if patch.IsEmpty() {
		return nil, newError(ErrValidation, "no fields to update")
	}

	updated, err := s.Projects.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "project not found")
		}
		return nil, err
	}

	for _, memberID := range updated.MemberIDs() {
		if memberID == actorID {
			continue
		}
		s.Notifications.Notify(ctx, CreateNotificationInput{
			UserID:         memberID,
			Type:           models.NotifProjectUpdate,
			Title:          "Project updated",
			Message:        fmt.Sprintf("%s has been updated by the owner", truncate(updated.Title, 100)),
			RelatedProject: &updated.ID,
			RelatedUser:    &actorID,
		})
	}
	s.publish(ctx, updated.ID, models.ActivityProjectUpdated, actorID, nil, "project details updated")
	return updated, nil
}

// Delete deactivates the project, or removes it and every reference to it when hard is set.
func (s *ProjectService) Delete(ctx context.Context, actorID, id primitive.ObjectID, hard bool) error {
	project, err := s.Projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(ErrNotFound, "project not found")
		}
		return err
	}
	if !project.IsActive && !hard {
		return newError(ErrNotFound, "project not found")
	}
	if !project.IsOwner(actorID) {
		return newError(ErrForbidden, "only the project owner can delete the project")
	}

	if hard {
		if err := s.Projects.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.Users.RemoveProjectFromAll(ctx, id); err != nil {
			return err
		}
		if err := s.Invitations.DeleteByProject(ctx, id); err != nil {
			return err
		}
	} else if err := s.Projects.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.publish(ctx, id, models.ActivityProjectDeleted, actorID, nil, fmt.Sprintf("hard=%t", hard))
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted (hard=%t)", id.Hex(), hard)
	return nil
}

// admit inserts userID into the roster with a single conditional update.
// When the guard fails the project is re-read to name the reason.
func (s *ProjectService) admit(ctx context.Context, projectID, userID primitive.ObjectID, source string) (*models.Project, error) {
	updated, err := s.Projects.AddMember(ctx, projectID, models.Member{
		User:     userID,
		JoinedAt: s.now(),
		Role:     models.RoleMember,
	})
	if err == nil {
		if err := s.Users.AddProject(ctx, userID, projectID); err != nil {
			logging.Logger.Warnf("Event ID: PROJECT_BACKREF_FAILED, Description: Could not link project %s to user %s: %v", projectID.Hex(), userID.Hex(), err)
		}
		metrics.MembershipAdmissions.WithLabelValues(source, "admitted").Inc()
		return updated, nil
	}
	if !errors.Is(err, repositories.ErrConditionFailed) {
		return nil, err
	}

	current, err := s.Projects.FindByID(ctx, projectID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, newError(ErrNotFound, "project not found")
	case err != nil:
		return nil, err
	case !current.IsActive:
		return nil, newError(ErrNotFound, "project not found")
	case current.IsMember(userID):
		metrics.MembershipAdmissions.WithLabelValues(source, "already_member").Inc()
		return current, errAlreadyMember
	case current.IsFull():
		metrics.MembershipAdmissions.WithLabelValues(source, "full").Inc()
		return nil, newError(ErrCapacityExceeded, "project has reached its maximum number of members")
	default:
		return nil, newError(ErrConflict, "project membership changed concurrently, please retry")
	}
}

func (s *ProjectService) Join(ctx context.Context, userID, id primitive.ObjectID) (*models.Project, error) {
	project, err := s.Get(ctx, id, &userID)
	if err != nil {
		return nil, err
	}
	if !project.Status.AcceptsMembers() {
		return nil, newError(ErrInvalidState, "cannot join a %s project", project.Status)
	}
	if project.IsMember(userID) {
		return nil, errAlreadyMember
	}

	updated, err := s.admit(ctx, id, userID, "join")
	if err != nil {
		return nil, err
	}

	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:         updated.Owner,
		Type:           models.NotifMemberJoined,
		Title:          "New member joined",
		Message:        fmt.Sprintf("%s joined %s", s.displayName(ctx, userID), truncate(updated.Title, 100)),
		RelatedProject: &updated.ID,
		RelatedUser:    &userID,
	})
	s.publish(ctx, updated.ID, models.ActivityAddMember, userID, &userID, "joined")
	return updated, nil
}

func (s *ProjectService) Leave(ctx context.Context, userID, id primitive.ObjectID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if project.IsOwner(userID) {
		return newError(ErrForbidden, "the project owner cannot leave the project")
	}
	removed, err := s.Projects.RemoveMember(ctx, id, userID)
	if err != nil {
		return err
	}
	if !removed {
		return newError(ErrNotFound, "you are not a member of this project")
	}
	if err := s.Users.RemoveProject(ctx, userID, id); err != nil {
		logging.Logger.Warnf("Event ID: PROJECT_BACKREF_FAILED, Description: Could not unlink project %s from user %s: %v", id.Hex(), userID.Hex(), err)
	}

	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:         project.Owner,
		Type:           models.NotifMemberLeft,
		Title:          "Member left",
		Message:        fmt.Sprintf("%s left %s", s.displayName(ctx, userID), truncate(project.Title, 100)),
		RelatedProject: &project.ID,
		RelatedUser:    &userID,
	})
	s.publish(ctx, id, models.ActivityRemoveMember, userID, &userID, "left")
	return nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, actorID, id, targetID primitive.ObjectID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !project.IsOwner(actorID) {
		return newError(ErrForbidden, "only the project owner can remove members")
	}
	if project.IsOwner(targetID) {
		return newError(ErrForbidden, "the project owner cannot be removed")
	}
	removed, err := s.Projects.RemoveMember(ctx, id, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return newError(ErrNotFound, "user is not a member of this project")
	}
	if err := s.Users.RemoveProject(ctx, targetID, id); err != nil {
		logging.Logger.Warnf("Event ID: PROJECT_BACKREF_FAILED, Description: Could not unlink project %s from user %s: %v", id.Hex(), targetID.Hex(), err)
	}

	s.Notifications.Notify(ctx, CreateNotificationInput{
		UserID:         targetID,
		Type:           models.NotifMemberLeft,
		Title:          "Removed from project",
		Message:        fmt.Sprintf("You were removed from %s", truncate(project.Title, 100)),
		RelatedProject: &project.ID,
		RelatedUser:    &actorID,
	})
	s.publish(ctx, id, models.ActivityRemoveMember, actorID, &targetID, "removed by owner")
	return nil
}

func (s *ProjectService) displayName(ctx context.Context, userID primitive.ObjectID) string {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil || user.Fullname == "" {
		return "A user"
	}
	return user.Fullname
}

func (s *ProjectService) publish(ctx context.Context, projectID primitive.ObjectID, kind models.ActivityType, actorID primitive.ObjectID, memberID *primitive.ObjectID, details string) {
	activity := models.ProjectActivity{
		ProjectID:    projectID,
		ActivityType: kind,
		ActorID:      actorID,
		MemberID:     memberID,
		Timestamp:    s.now(),
		Details:      details,
	}
	if err := s.Activity.Publish(ctx, activity); err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_PUBLISH_FAILED, Description: %s for project %s: %v", kind, projectID.Hex(), err)
	}
}
