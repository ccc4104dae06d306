package entity

import "github.com/parleyhq/parley/pkg/constant"

// Message is one append-only log entry. AuthoringActorId is who the message
// speaks as (person or organization); SenderSubjectId is the person who
// physically sent it, kept for audit. Rows are never mutated or deleted.
type Message struct {
	Id               string  `json:"id" gorm:"column:id;primaryKey"`
	ConversationId   string  `json:"conversation_id" gorm:"column:conversation_id;index:idx_message_conv_created,priority:1;uniqueIndex:uk_message_conv_seq"`
	Seq              int64   `json:"seq" gorm:"column:seq;uniqueIndex:uk_message_conv_seq"`
	ClientMsgId      string  `json:"client_msg_id" gorm:"column:client_msg_id"`
	AuthoringActorId string  `json:"authoring_actor_id" gorm:"column:authoring_actor_id"`
	SenderSubjectId  string  `json:"sender_subject_id" gorm:"column:sender_subject_id"`
	Content          *string `json:"content,omitempty" gorm:"column:content"`
	MediaUrl         *string `json:"media_url,omitempty" gorm:"column:media_url"`
	MediaType        int32   `json:"media_type" gorm:"column:media_type"`
	CreatedAt        int64   `json:"created_at" gorm:"column:created_at;index:idx_message_conv_created,priority:2"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// HasPayload reports whether the message carries content or a media
// reference. A message with neither is invalid.
func (m *Message) HasPayload() bool {
	if m.Content != nil && *m.Content != "" {
		return true
	}
	return m.MediaUrl != nil && *m.MediaUrl != ""
}

// Preview returns a short display string for inbox summaries.
func (m *Message) Preview() string {
	if m.Content != nil && *m.Content != "" {
		return *m.Content
	}
	return "[" + constant.MediaTypeName(m.MediaType) + "]"
}

// Less orders messages by (created_at, id) ascending; ids are fixed-width
// decimal strings so string comparison matches allocation order.
func (m *Message) Less(other *Message) bool {
	if m.CreatedAt != other.CreatedAt {
		return m.CreatedAt < other.CreatedAt
	}
	return m.Id < other.Id
}

// MessageInfo is the API shape of a message
type MessageInfo struct {
	Id               string  `json:"id"`
	ConversationId   string  `json:"conversation_id"`
	Seq              int64   `json:"seq"`
	ClientMsgId      string  `json:"client_msg_id"`
	AuthoringActorId string  `json:"authoring_actor_id"`
	SenderSubjectId  string  `json:"sender_subject_id"`
	Content          *string `json:"content,omitempty"`
	MediaUrl         *string `json:"media_url,omitempty"`
	MediaType        int32   `json:"media_type"`
	CreatedAt        int64   `json:"created_at"`
}

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:               m.Id,
		ConversationId:   m.ConversationId,
		Seq:              m.Seq,
		ClientMsgId:      m.ClientMsgId,
		AuthoringActorId: m.AuthoringActorId,
		SenderSubjectId:  m.SenderSubjectId,
		Content:          m.Content,
		MediaUrl:         m.MediaUrl,
		MediaType:        m.MediaType,
		CreatedAt:        m.CreatedAt,
	}
}
