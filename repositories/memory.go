package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

// The in-memory repositories mirror the Mongo ones, conditional updates
// included. They back the service and handler tests.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func cloneUser(u models.User) models.User {
	u.Skills = slices.Clone(u.Skills)
	u.Projects = slices.Clone(u.Projects)
	return u
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Projects == nil {
		user.Projects = []primitive.ObjectID{}
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := []models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *MemoryUserRepository) Search(_ context.Context, query string, exclude primitive.ObjectID, limit int) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	matches := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	users := []models.User{}
	for id, u := range r.users {
		if id == exclude {
			continue
		}
		if matches(u.Fullname) || matches(u.Email) || slices.ContainsFunc(u.Skills, matches) {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Fullname < users[j].Fullname })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *MemoryUserRepository) mutate(id primitive.ObjectID, fn func(u *models.User)) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = cloneUser(u)
	fn(&u)
	r.users[id] = u
	out := cloneUser(u)
	return &out, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error) {
	return r.mutate(id, func(u *models.User) {
		patch.Apply(u)
		u.UpdatedAt = time.Now()
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.mutate(id, func(u *models.User) {
		u.Password = hash
		u.UpdatedAt = time.Now()
	})
	return err
}

func (r *MemoryUserRepository) UpdateAvatar(_ context.Context, id primitive.ObjectID, url string) error {
	_, err := r.mutate(id, func(u *models.User) {
		u.AvatarURL = url
		u.UpdatedAt = time.Now()
	})
	return err
}

func (r *MemoryUserRepository) AddProject(_ context.Context, userID, projectID primitive.ObjectID) error {
	_, err := r.mutate(userID, func(u *models.User) {
		if !slices.Contains(u.Projects, projectID) {
			u.Projects = append(u.Projects, projectID)
		}
	})
	return err
}

func (r *MemoryUserRepository) RemoveProject(_ context.Context, userID, projectID primitive.ObjectID) error {
	_, err := r.mutate(userID, func(u *models.User) {
		u.Projects = slices.DeleteFunc(u.Projects, func(id primitive.ObjectID) bool { return id == projectID })
	})
	return err
}

func (r *MemoryUserRepository) RemoveProjectFromAll(_ context.Context, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		u = cloneUser(u)
		u.Projects = slices.DeleteFunc(u.Projects, func(p primitive.ObjectID) bool { return p == projectID })
		r.users[id] = u
	}
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[primitive.ObjectID]models.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[primitive.ObjectID]models.Project)}
}

func cloneProject(p models.Project) models.Project {
	p.Tags = slices.Clone(p.Tags)
	p.RequiredSkills = slices.Clone(p.RequiredSkills)
	p.Members = slices.Clone(p.Members)
	if p.Deadline != nil {
		d := *p.Deadline
		p.Deadline = &d
	}
	return p
}

func (r *MemoryProjectRepository) Create(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	r.projects[project.ID] = cloneProject(*project)
	return nil
}

func (r *MemoryProjectRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = cloneProject(p)
	return &p, nil
}

func (r *MemoryProjectRepository) collect(match func(p models.Project) bool) []models.Project {
	out := []models.Project{}
	for _, p := range r.projects {
		if match(p) {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryProjectRepository) List(_ context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(filter.Search)
	all := r.collect(func(p models.Project) bool {
		if !p.IsActive || p.Visibility != models.VisibilityPublic {
			return false
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			return false
		}
		if len(filter.Tags) > 0 && !slices.ContainsFunc(p.Tags, func(t string) bool { return slices.Contains(filter.Tags, t) }) {
			return false
		}
		if q != "" {
			hit := strings.Contains(strings.ToLower(p.Title), q) ||
				strings.Contains(strings.ToLower(p.Description), q) ||
				slices.ContainsFunc(p.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), q) })
			if !hit {
				return false
			}
		}
		return true
	})
	return pageOf(all, filter.Page, filter.Limit), int64(len(all)), nil
}

func (r *MemoryProjectRepository) ListByMember(_ context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Project) bool { return p.IsActive && p.IsMember(userID) }), nil
}

func (r *MemoryProjectRepository) ListOwnedBy(_ context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Project) bool { return p.Owner == userID }), nil
}

func (r *MemoryProjectRepository) Update(_ context.Context, id primitive.ObjectID, patch models.ProjectUpdate) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = cloneProject(p)
	patch.Apply(&p)
	p.UpdatedAt = time.Now()
	r.projects[id] = p
	out := cloneProject(p)
	return &out, nil
}

func (r *MemoryProjectRepository) AddMember(_ context.Context, projectID primitive.ObjectID, member models.Member) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok || !p.IsActive || p.IsMember(member.User) || p.IsFull() {
		return nil, ErrConditionFailed
	}
	p = cloneProject(p)
	p.Members = append(p.Members, member)
	p.UpdatedAt = time.Now()
	r.projects[projectID] = p
	out := cloneProject(p)
	return &out, nil
}

func (r *MemoryProjectRepository) RemoveMember(_ context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return false, nil
	}
	removed := removeNonOwner(&p, userID)
	if removed {
		p.UpdatedAt = time.Now()
		r.projects[projectID] = p
	}
	return removed, nil
}

func removeNonOwner(p *models.Project, userID primitive.ObjectID) bool {
	before := len(p.Members)
	p.Members = slices.DeleteFunc(slices.Clone(p.Members), func(m models.Member) bool {
		return m.User == userID && m.Role != models.RoleOwner
	})
	return len(p.Members) != before
}

func (r *MemoryProjectRepository) RemoveMemberFromAll(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.projects {
		if removeNonOwner(&p, userID) {
			r.projects[id] = p
		}
	}
	return nil
}

func (r *MemoryProjectRepository) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = time.Now()
	r.projects[id] = p
	return nil
}

func (r *MemoryProjectRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

type MemoryInvitationRepository struct {
	mu          sync.RWMutex
	invitations map[primitive.ObjectID]models.Invitation
}

func NewMemoryInvitationRepository() *MemoryInvitationRepository {
	return &MemoryInvitationRepository{invitations: make(map[primitive.ObjectID]models.Invitation)}
}

func (r *MemoryInvitationRepository) Create(_ context.Context, invitation *models.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invitation.Status == models.InvitationPending {
		for _, inv := range r.invitations {
			if inv.Project == invitation.Project && inv.Receiver == invitation.Receiver && inv.Status == models.InvitationPending {
				return ErrDuplicate
			}
		}
	}
	if invitation.ID.IsZero() {
		invitation.ID = primitive.NewObjectID()
	}
	r.invitations[invitation.ID] = *invitation
	return nil
}

func (r *MemoryInvitationRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invitations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (r *MemoryInvitationRepository) FindPending(_ context.Context, projectID, receiverID primitive.ObjectID) (*models.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invitations {
		if inv.Project == projectID && inv.Receiver == receiverID && inv.Status == models.InvitationPending {
			return &inv, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryInvitationRepository) list(match func(inv models.Invitation) bool, status models.InvitationStatus) []models.Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Invitation{}
	for _, inv := range r.invitations {
		if match(inv) && (status == "" || inv.Status == status) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryInvitationRepository) ListByReceiver(_ context.Context, receiverID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error) {
	return r.list(func(inv models.Invitation) bool { return inv.Receiver == receiverID }, status), nil
}

func (r *MemoryInvitationRepository) ListBySender(_ context.Context, senderID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error) {
	return r.list(func(inv models.Invitation) bool { return inv.Sender == senderID }, status), nil
}

func (r *MemoryInvitationRepository) Transition(_ context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) (*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[id]
	if !ok || inv.Status != from {
		return nil, ErrConditionFailed
	}
	inv.Status = to
	if to == models.InvitationPending {
		inv.RespondedAt = nil
	} else {
		t := at
		inv.RespondedAt = &t
	}
	r.invitations[id] = inv
	return &inv, nil
}

func (r *MemoryInvitationRepository) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.invitations {
		if inv.Sender == userID || inv.Receiver == userID {
			delete(r.invitations, id)
		}
	}
	return nil
}

func (r *MemoryInvitationRepository) DeleteByProject(_ context.Context, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.invitations {
		if inv.Project == projectID {
			delete(r.invitations, id)
		}
	}
	return nil
}

type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[primitive.ObjectID]models.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{notifications: make(map[primitive.ObjectID]models.Notification)}
}

func (r *MemoryNotificationRepository) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	r.notifications[n.ID] = *n
	return nil
}

func (r *MemoryNotificationRepository) ListByUser(_ context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := []models.Notification{}
	for _, n := range r.notifications {
		if n.User == userID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.Hex() > all[j].ID.Hex()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (r *MemoryNotificationRepository) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.notifications {
		if n.User == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, userID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.User != userID {
		return ErrNotFound
	}
	n.IsRead = true
	r.notifications[id] = n
	return nil
}

func (r *MemoryNotificationRepository) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for id, n := range r.notifications {
		if n.User == userID && !n.IsRead {
			n.IsRead = true
			r.notifications[id] = n
			modified++
		}
	}
	return modified, nil
}

func (r *MemoryNotificationRepository) Delete(_ context.Context, userID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.User != userID {
		return ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *MemoryNotificationRepository) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if n.User == userID {
			delete(r.notifications, id)
		}
	}
	return nil
}

type MemoryChatRepository struct {
	mu    sync.RWMutex
	chats map[primitive.ObjectID]models.Chat
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{chats: make(map[primitive.ObjectID]models.Chat)}
}

func cloneChat(c models.Chat) models.Chat {
	c.Participants = slices.Clone(c.Participants)
	if c.LastMessage != nil {
		id := *c.LastMessage
		c.LastMessage = &id
	}
	return c
}

func (r *MemoryChatRepository) FindOrCreate(_ context.Context, a, b primitive.ObjectID, at time.Time) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := models.PairKey(a, b)
	for _, c := range r.chats {
		if c.PairKey == key {
			c = cloneChat(c)
			return &c, nil
		}
	}
	lo, hi := models.SortedPair(a, b)
	c := models.Chat{
		ID:           primitive.NewObjectID(),
		Participants: []primitive.ObjectID{lo, hi},
		PairKey:      key,
		LastActivity: at,
		CreatedAt:    at,
	}
	r.chats[c.ID] = c
	c = cloneChat(c)
	return &c, nil
}

func (r *MemoryChatRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneChat(c)
	return &c, nil
}

func (r *MemoryChatRepository) ListByParticipant(_ context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Chat{}
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			out = append(out, cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (r *MemoryChatRepository) Touch(_ context.Context, chatID, lastMessage primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	c.LastMessage = &lastMessage
	c.LastActivity = at
	r.chats[chatID] = c
	return nil
}

func (r *MemoryChatRepository) SetLastMessage(_ context.Context, chatID primitive.ObjectID, lastMessage *primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	if lastMessage != nil {
		id := *lastMessage
		c.LastMessage = &id
	} else {
		c.LastMessage = nil
	}
	r.chats[chatID] = c
	return nil
}

type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[primitive.ObjectID]models.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{messages: make(map[primitive.ObjectID]models.Message)}
}

func cloneMessage(m models.Message) models.Message {
	m.ReadBy = slices.Clone(m.ReadBy)
	if m.Edited.EditedAt != nil {
		t := *m.Edited.EditedAt
		m.Edited.EditedAt = &t
	}
	return m
}

func (r *MemoryMessageRepository) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	if message.ReadBy == nil {
		message.ReadBy = []primitive.ObjectID{}
	}
	r.messages[message.ID] = cloneMessage(*message)
	return nil
}

func (r *MemoryMessageRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	m = cloneMessage(m)
	return &m, nil
}

// newestFirst orders by createdAt then id, both descending.
func (r *MemoryMessageRepository) newestFirst(chatID primitive.ObjectID) []models.Message {
	out := []models.Message{}
	for _, m := range r.messages {
		if m.Chat == chatID {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryMessageRepository) ListByChat(_ context.Context, chatID primitive.ObjectID, page, limit int) ([]models.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.newestFirst(chatID)
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (r *MemoryMessageRepository) Latest(_ context.Context, chatID primitive.ObjectID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.newestFirst(chatID)
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return &all[0], nil
}

func (r *MemoryMessageRepository) UpdateContent(_ context.Context, id primitive.ObjectID, content string, edited models.EditInfo) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Content = content
	m.Edited = edited
	m = cloneMessage(m)
	r.messages[id] = m
	out := cloneMessage(m)
	return &out, nil
}

func (r *MemoryMessageRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *MemoryMessageRepository) MarkChatRead(_ context.Context, chatID, reader primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for id, m := range r.messages {
		if m.Chat != chatID || m.Sender == reader || m.IsRead {
			continue
		}
		m = cloneMessage(m)
		m.IsRead = true
		if !slices.Contains(m.ReadBy, reader) {
			m.ReadBy = append(m.ReadBy, reader)
		}
		r.messages[id] = m
		modified++
	}
	return modified, nil
}

func (r *MemoryMessageRepository) CountUnread(_ context.Context, chatIDs []primitive.ObjectID, reader primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, m := range r.messages {
		if slices.Contains(chatIDs, m.Chat) && m.Sender != reader && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func pageOf[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if page < 1 || limit < 1 || start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
