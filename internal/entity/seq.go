package entity

// ConversationSeq tracks the append sequence and newest-message timestamp per
// conversation. MaxSeq totally orders appends within a conversation; the
// authoritative copy lives in Redis and is synced here in the append
// transaction.
type ConversationSeq struct {
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;primaryKey"`
	MaxSeq         int64  `json:"max_seq" gorm:"column:max_seq"`
	LastMessageAt  int64  `json:"last_message_at" gorm:"column:last_message_at"`
}

// TableName returns the table name for ConversationSeq
func (ConversationSeq) TableName() string {
	return "conversation_seqs"
}
