// Package model defines the persistent chat records and the status views
// exchanged with connected clients.
package model

import "time"

// User is a chat account. Presence columns are owned by the presence tracker.
type User struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	Name       string     `gorm:"size:120;not null" json:"name"`
	Email      string     `gorm:"size:190;uniqueIndex;not null" json:"email"`
	ImageURL   string     `gorm:"size:512" json:"imageUrl,omitempty"`
	IsOnline   bool       `gorm:"not null;default:false" json:"-"`
	LastActive *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

// Conversation is a direct or group chat. Its participant set is managed
// outside the relay.
type Conversation struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	Name         string        `gorm:"size:120" json:"name,omitempty"`
	IsGroup      bool          `gorm:"not null;default:false" json:"isGroup"`
	Participants []Participant `gorm:"constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"-"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the user ids of every participant.
func (c Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Participant links a user to a conversation.
type Participant struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID string    `gorm:"size:64;not null;uniqueIndex:idx_participant_member" json:"conversationId"`
	UserID         string    `gorm:"size:64;not null;uniqueIndex:idx_participant_member;index" json:"userId"`
	User           User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// Message is a chat message. At least one of Content and AttachmentRef is set.
type Message struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string     `gorm:"size:64;not null;index:idx_message_conversation" json:"conversationId"`
	SenderID       string     `gorm:"size:64;not null;index" json:"senderId"`
	Content        *string    `gorm:"type:text" json:"content"`
	AttachmentRef  *string    `gorm:"size:2048" json:"attachmentRef"`
	Sender         User       `gorm:"foreignKey:SenderID" json:"sender"`
	Reactions      []Reaction `gorm:"constraint:OnDelete:CASCADE" json:"reactions"`
	CreatedAt      time.Time  `gorm:"index:idx_message_conversation" json:"createdAt"`
}

// Reaction is one user's emoji on one message. The (message, user, emoji)
// triple is unique.
type Reaction struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	MessageID string    `gorm:"size:64;not null;uniqueIndex:idx_reaction_triple" json:"messageId"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_reaction_triple" json:"userId"`
	Emoji     string    `gorm:"size:64;not null;uniqueIndex:idx_reaction_triple" json:"emoji"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionToggle is the outcome of toggling a reaction.
type ReactionToggle struct {
	Added          bool
	Reaction       Reaction
	ConversationID string
}

// UserStatus is the presence view of one user.
type UserStatus struct {
	UserID     string    `json:"userId"`
	IsOnline   bool      `json:"isOnline"`
	LastActive time.Time `json:"lastActive"`
}
