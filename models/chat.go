package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

func (t MessageType) IsValid() bool {
	return t == MessageText || t == MessageImage || t == MessageFile
}

const (
	MaxMessageLength  = 2000
	MessageEditWindow = 10 * time.Minute
	MessageDeleteTTL  = 24 * time.Hour
)

// Chat is a two-person conversation. Participants are stored in ascending
// order and PairKey is unique, so an unordered pair maps to one chat.
type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	PairKey      string               `bson:"pairKey" json:"-"`
	LastMessage  *primitive.ObjectID  `bson:"lastMessage" json:"lastMessage"`
	LastActivity time.Time            `bson:"lastActivity" json:"lastActivity"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}

func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Other returns the participant that is not userID.
func (c *Chat) Other(userID primitive.ObjectID) primitive.ObjectID {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return primitive.NilObjectID
}

// SortedPair orders two ids ascending by hex.
func SortedPair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

func PairKey(a, b primitive.ObjectID) string {
	lo, hi := SortedPair(a, b)
	return lo.Hex() + ":" + hi.Hex()
}

type EditInfo struct {
	IsEdited        bool       `bson:"isEdited" json:"isEdited"`
	EditedAt        *time.Time `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	OriginalContent string     `bson:"originalContent,omitempty" json:"originalContent,omitempty"`
}

type Message struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Chat        primitive.ObjectID   `bson:"chat" json:"chat"`
	Sender      primitive.ObjectID   `bson:"sender" json:"sender"`
	Content     string               `bson:"content" json:"content"`
	MessageType MessageType          `bson:"messageType" json:"messageType"`
	IsRead      bool                 `bson:"isRead" json:"isRead"`
	ReadBy      []primitive.ObjectID `bson:"readBy" json:"readBy"`
	Edited      EditInfo             `bson:"edited" json:"edited"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}

type ChatView struct {
	Chat
	OtherUser          *UserSummary `json:"otherUser,omitempty"`
	LastMessageDetails *Message     `json:"lastMessageDetails,omitempty"`
	UnreadCount        int64        `json:"unreadCount"`
}
