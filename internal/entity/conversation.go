package entity

// Conversation is the durable aggregate for one two-party thread. At most one
// row exists per pairing key.
type Conversation struct {
	Id         string `json:"id" gorm:"column:id;primaryKey"`
	PairingKey string `json:"pairing_key" gorm:"column:pairing_key;uniqueIndex:uk_conversation_pairing_key"`
	Kind       int32  `json:"kind" gorm:"column:kind"`
	OrgId      string `json:"org_id,omitempty" gorm:"column:org_id"`
	CreatedAt  int64  `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Membership is one participant's private view of one conversation. Only the
// owning participant may mutate it; per-viewer state never leaks across rows.
// The read watermark is the sequence number, not the timestamp: seqs are
// unique per conversation, so a message landing in the same millisecond as a
// mark-read still counts as unread. last_read_at is display state only.
type Membership struct {
	Id                   int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ConversationId       string `json:"conversation_id" gorm:"column:conversation_id;uniqueIndex:uk_membership_conv_participant"`
	ParticipantSubjectId string `json:"participant_subject_id" gorm:"column:participant_subject_id;uniqueIndex:uk_membership_conv_participant"`
	PartnerSubjectId     string `json:"partner_subject_id" gorm:"column:partner_subject_id"`
	Muted                bool   `json:"muted" gorm:"column:muted"`
	ArchivedAt           *int64 `json:"archived_at,omitempty" gorm:"column:archived_at"`
	ClearedBefore        *int64 `json:"cleared_before,omitempty" gorm:"column:cleared_before"`
	LastReadSeq          int64  `json:"last_read_seq" gorm:"column:last_read_seq"`
	LastReadAt           *int64 `json:"last_read_at,omitempty" gorm:"column:last_read_at"`
	CreatedAt            int64  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt            int64  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for Membership
func (Membership) TableName() string {
	return "memberships"
}

// IsArchived checks if the membership is currently archived
func (m *Membership) IsArchived() bool {
	return m.ArchivedAt != nil
}

// ClearedBeforeOrZero returns the clear-history watermark, or 0 if history
// was never cleared.
func (m *Membership) ClearedBeforeOrZero() int64 {
	if m.ClearedBefore == nil {
		return 0
	}
	return *m.ClearedBefore
}

// LastReadAtOrZero returns the read watermark, or 0 if nothing was read yet.
func (m *Membership) LastReadAtOrZero() int64 {
	if m.LastReadAt == nil {
		return 0
	}
	return *m.LastReadAt
}

// InboxRow is the raw inbox projection scanned from the store: the membership
// plus derived counters for the owning participant.
type InboxRow struct {
	Membership
	LastMessageAt        int64   `json:"last_message_at" gorm:"column:last_message_at"`
	UnreadCount          int64   `json:"unread_count" gorm:"column:unread_count"`
	LastMessagePreview   *string `json:"last_message_preview,omitempty" gorm:"column:last_message_preview"`
	LastMessageMediaType int32   `json:"last_message_media_type" gorm:"column:last_message_media_type"`
}

// InboxEntry is the API shape of one inbox line
type InboxEntry struct {
	ConversationId     string `json:"conversation_id"`
	PartnerSubjectId   string `json:"partner_subject_id"`
	LastMessagePreview string `json:"last_message_preview"`
	LastMessageAt      int64  `json:"last_message_at"`
	UnreadCount        int64  `json:"unread_count"`
	Muted              bool   `json:"muted"`
	Archived           bool   `json:"archived"`
}

// ConversationView is the API shape of one conversation with the caller's
// membership state.
type ConversationView struct {
	ConversationId   string `json:"conversation_id"`
	Kind             int32  `json:"kind"`
	OrgId            string `json:"org_id,omitempty"`
	PartnerSubjectId string `json:"partner_subject_id"`
	Muted            bool   `json:"muted"`
	Archived         bool   `json:"archived"`
	ClearedBefore    *int64 `json:"cleared_before,omitempty"`
	LastReadSeq      int64  `json:"last_read_seq"`
	LastReadAt       *int64 `json:"last_read_at,omitempty"`
	MaxSeq           int64  `json:"max_seq"`
	UnreadCount      int64  `json:"unread_count"`
	CreatedAt        int64  `json:"created_at"`
}
