package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const cassandraKeyspace = "worknest"

// CassandraNotificationRepository stores notifications partitioned by
// recipient. Ids are ObjectID hex strings, which sort by creation second,
// so clustering on id DESC lists newest first.
type CassandraNotificationRepository struct {
	session *gocql.Session
}

func NewCassandraNotificationRepository(hosts string) (*CassandraNotificationRepository, error) {
	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra: %w", err)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS ` + cassandraKeyspace + `
		 WITH replication = {
			'class': 'SimpleStrategy',
			'replication_factor': 1
		 }`).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyspace: %w", err)
	}

	cluster.Keyspace = cassandraKeyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s keyspace: %w", cassandraKeyspace, err)
	}

	logging.Logger.Infof("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra keyspace %s", cassandraKeyspace)
	return &CassandraNotificationRepository{session: session}, nil
}

func (r *CassandraNotificationRepository) CloseSession() {
	r.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed")
}

func (r *CassandraNotificationRepository) CreateTable(ctx context.Context) error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			user_id TEXT,
			id TEXT,
			type TEXT,
			title TEXT,
			message TEXT,
			is_read BOOLEAN,
			related_project TEXT,
			related_user TEXT,
			related_invite TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((user_id), id)
		) WITH CLUSTERING ORDER BY (id DESC)`).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func objectIDOrNil(s string) *primitive.ObjectID {
	if s == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &id
}

func (r *CassandraNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	err := r.session.Query(
		`INSERT INTO notifications (user_id, id, type, title, message, is_read,
			related_project, related_user, related_invite, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.User.Hex(), n.ID.Hex(), string(n.Type), n.Title, n.Message, n.IsRead,
		hexOrEmpty(n.RelatedProject), hexOrEmpty(n.RelatedUser), hexOrEmpty(n.RelatedInvite), n.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser reads the first page*limit rows of the partition and slices
// the requested page, since CQL has no offset.
func (r *CassandraNotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := r.session.Query(`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID.Hex()).
		WithContext(ctx).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	iter := r.session.Query(
		`SELECT id, type, title, message, is_read, related_project, related_user, related_invite, created_at
		 FROM notifications WHERE user_id = ? LIMIT ?`, userID.Hex(), page*limit,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var (
		id, typ, title, message string
		isRead                  bool
		project, user, invite   string
		createdAt               time.Time
	)
	skip := (page - 1) * limit
	for iter.Scan(&id, &typ, &title, &message, &isRead, &project, &user, &invite, &createdAt) {
		if skip > 0 {
			skip--
			continue
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		notifications = append(notifications, models.Notification{
			ID:             oid,
			User:           userID,
			Type:           models.NotificationType(typ),
			Title:          title,
			Message:        message,
			IsRead:         isRead,
			RelatedProject: objectIDOrNil(project),
			RelatedUser:    objectIDOrNil(user),
			RelatedInvite:  objectIDOrNil(invite),
			CreatedAt:      createdAt,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *CassandraNotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var count int64
	err := r.session.Query(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = false ALLOW FILTERING`, userID.Hex(),
	).WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *CassandraNotificationRepository) exists(ctx context.Context, userID, id primitive.ObjectID) error {
	var found string
	err := r.session.Query(`SELECT id FROM notifications WHERE user_id = ? AND id = ?`, userID.Hex(), id.Hex()).
		WithContext(ctx).Scan(&found)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("error fetching notification: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepository) MarkRead(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := r.exists(ctx, userID, id); err != nil {
		return err
	}
	err := r.session.Query(`UPDATE notifications SET is_read = true WHERE user_id = ? AND id = ?`, userID.Hex(), id.Hex()).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	iter := r.session.Query(
		`SELECT id FROM notifications WHERE user_id = ? AND is_read = false ALLOW FILTERING`, userID.Hex(),
	).WithContext(ctx).Iter()

	batch := r.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	var id string
	for iter.Scan(&id) {
		batch.Query(`UPDATE notifications SET is_read = true WHERE user_id = ? AND id = ?`, userID.Hex(), id)
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to fetch unread notifications: %w", err)
	}
	if batch.Size() == 0 {
		return 0, nil
	}
	if err := r.session.ExecuteBatch(batch); err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return int64(batch.Size()), nil
}

func (r *CassandraNotificationRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := r.exists(ctx, userID, id); err != nil {
		return err
	}
	err := r.session.Query(`DELETE FROM notifications WHERE user_id = ? AND id = ?`, userID.Hex(), id.Hex()).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (r *CassandraNotificationRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if err := r.session.Query(`DELETE FROM notifications WHERE user_id = ?`, userID.Hex()).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
