package model

import "time"

// SystemSenderUID marks messages posted by the marketplace itself.
const SystemSenderUID = "system"

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID uint64    `gorm:"column:conversation_id;index"`
	SenderUID      string    `gorm:"column:sender_uid;size:128;index"`
	Body           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}

// ReadBy reports whether uid has seen the message given their last read time.
// Own messages are always read.
func (m *Message) ReadBy(uid string, lastReadAt *time.Time) bool {
	if m.SenderUID == uid {
		return true
	}
	if lastReadAt == nil {
		return false
	}
	return !m.CreatedAt.After(*lastReadAt)
}
