package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/repository"
	"github.com/parleyhq/parley/pkg/constant"
)

// fakeStore is an in-memory store backing the service tests. It enforces the
// same uniqueness rules the MySQL schema does (pairing key, membership pair,
// per-sender client message id) and derives unread counters the same way the
// SQL projection does, so interleavings exercised here mirror production.
type fakeStore struct {
	mu          sync.Mutex
	actors      map[string]*entity.Actor
	convsByKey  map[string]*entity.Conversation
	convsById   map[string]*entity.Conversation
	memberships map[string]*entity.Membership
	messages    []*entity.Message
	byClientMsg map[string]*entity.Message
	seqs        map[string]int64
	clock       int64
	frozen      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		actors:      make(map[string]*entity.Actor),
		convsByKey:  make(map[string]*entity.Conversation),
		convsById:   make(map[string]*entity.Conversation),
		memberships: make(map[string]*entity.Membership),
		byClientMsg: make(map[string]*entity.Message),
		seqs:        make(map[string]int64),
		clock:       1_000_000,
	}
}

func (f *fakeStore) tick() int64 {
	if !f.frozen {
		f.clock++
	}
	return f.clock
}

// freezeClock pins the logical clock so subsequent writes share one
// millisecond, the interleaving a strictly ticking clock can never produce.
func (f *fakeStore) freezeClock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozen = true
}

func actorKey(subjectId string, kind int32) string {
	return fmt.Sprintf("%s|%d", subjectId, kind)
}

func membershipKey(conversationId, participantSubjectId string) string {
	return conversationId + "|" + participantSubjectId
}

// --- ActorStore ---

func (f *fakeStore) Resolve(ctx context.Context, subjectId string, kind int32) (*entity.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := actorKey(subjectId, kind)
	if a, ok := f.actors[key]; ok {
		return a, nil
	}
	a := &entity.Actor{
		Id:        fmt.Sprintf("actor-%d", len(f.actors)+1),
		SubjectId: subjectId,
		Kind:      kind,
		CreatedAt: f.tick(),
	}
	f.actors[key] = a
	return a, nil
}

// --- ConversationStore ---

func (f *fakeStore) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.convsByKey[conv.PairingKey]; ok {
		return existing, nil
	}
	stored := *conv
	stored.CreatedAt = f.tick()
	f.convsByKey[stored.PairingKey] = &stored
	f.convsById[stored.Id] = &stored
	return &stored, nil
}

func (f *fakeStore) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convsById[id], nil
}

// --- MembershipStore ---

func (f *fakeStore) Get(ctx context.Context, conversationId, participantSubjectId string) (*entity.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey(conversationId, participantSubjectId)]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) Upsert(ctx context.Context, m *entity.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertLocked(m)
	return nil
}

func (f *fakeStore) upsertLocked(m *entity.Membership) {
	key := membershipKey(m.ConversationId, m.ParticipantSubjectId)
	if existing, ok := f.memberships[key]; ok {
		// Existing visibility state survives re-upserts, matching the
		// on-conflict clause that touches updated_at only.
		existing.UpdatedAt = f.tick()
		return
	}
	cp := *m
	cp.CreatedAt = f.tick()
	cp.UpdatedAt = cp.CreatedAt
	f.memberships[key] = &cp
}

func (f *fakeStore) UpdateVisibility(ctx context.Context, conversationId, participantSubjectId string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey(conversationId, participantSubjectId)]
	if !ok {
		return fmt.Errorf("membership not found")
	}
	for col, val := range updates {
		switch col {
		case "muted":
			m.Muted = val.(bool)
		case "archived_at":
			m.ArchivedAt = f.restamp(val)
		case "cleared_before":
			m.ClearedBefore = f.restamp(val)
		}
	}
	m.UpdatedAt = f.tick()
	return nil
}

// restamp maps a wall-clock visibility timestamp from the service onto the
// fake store's logical clock, keeping every stored timestamp in the one time
// domain the production database has.
func (f *fakeStore) restamp(val interface{}) *int64 {
	if val == nil {
		return nil
	}
	v := f.tick()
	return &v
}

func (f *fakeStore) MarkRead(ctx context.Context, conversationId, participantSubjectId string, readSeq, readAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey(conversationId, participantSubjectId)]
	if !ok {
		return fmt.Errorf("membership not found")
	}
	if m.LastReadSeq < readSeq {
		m.LastReadSeq = readSeq
	}
	if m.LastReadAtOrZero() < readAt {
		m.LastReadAt = &readAt
	}
	return nil
}

func (f *fakeStore) Unarchive(ctx context.Context, conversationId, participantSubjectId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey(conversationId, participantSubjectId)]
	if !ok {
		return fmt.Errorf("membership not found")
	}
	m.ArchivedAt = nil
	return nil
}

func (f *fakeStore) Inbox(ctx context.Context, participantSubjectId string) ([]*entity.InboxRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []*entity.InboxRow
	for key, m := range f.memberships {
		if !strings.HasSuffix(key, "|"+participantSubjectId) {
			continue
		}
		row := &entity.InboxRow{Membership: *m}
		var lastMsgAt int64
		for _, msg := range f.messages {
			if msg.ConversationId != m.ConversationId {
				continue
			}
			if msg.CreatedAt <= m.ClearedBeforeOrZero() {
				continue
			}
			if msg.CreatedAt > lastMsgAt {
				lastMsgAt = msg.CreatedAt
				row.LastMessagePreview = msg.Content
				row.LastMessageMediaType = msg.MediaType
			}
			if msg.SenderSubjectId != participantSubjectId && msg.Seq > m.LastReadSeq {
				row.UnreadCount++
			}
		}
		row.LastMessageAt = lastMsgAt
		if lastMsgAt == 0 {
			row.LastMessageAt = m.CreatedAt
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LastMessageAt > rows[j].LastMessageAt
	})
	return rows, nil
}

func (f *fakeStore) UnreadCount(ctx context.Context, conversationId, participantSubjectId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.memberships[membershipKey(conversationId, participantSubjectId)]
	var lastReadSeq, clearedBefore int64
	if m != nil {
		lastReadSeq = m.LastReadSeq
		clearedBefore = m.ClearedBeforeOrZero()
	}

	var count int64
	for _, msg := range f.messages {
		if msg.ConversationId != conversationId {
			continue
		}
		if msg.SenderSubjectId == participantSubjectId {
			continue
		}
		if msg.Seq > lastReadSeq && msg.CreatedAt > clearedBefore {
			count++
		}
	}
	return count, nil
}

// --- MessageStore ---

func (f *fakeStore) Append(ctx context.Context, msg *entity.Message, sender, partner *entity.Membership) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	clientKey := msg.SenderSubjectId + "|" + msg.ClientMsgId
	if existing, ok := f.byClientMsg[clientKey]; ok {
		return existing, nil
	}

	f.seqs[msg.ConversationId]++
	msg.Seq = f.seqs[msg.ConversationId]
	msg.CreatedAt = f.tick()

	f.messages = append(f.messages, msg)
	f.byClientMsg[clientKey] = msg
	f.upsertLocked(sender)
	f.upsertLocked(partner)
	return msg, nil
}

func (f *fakeStore) GetByClientMsgId(ctx context.Context, senderSubjectId, clientMsgId string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byClientMsg[senderSubjectId+"|"+clientMsgId], nil
}

func (f *fakeStore) List(ctx context.Context, conversationId string, q repository.ListQuery) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	limit := q.Limit
	if limit <= 0 || limit > constant.DefaultListLimit {
		limit = constant.DefaultListLimit
	}

	var out []*entity.Message
	for _, msg := range f.messages {
		if msg.ConversationId != conversationId {
			continue
		}
		if q.ClearedBefore > 0 && msg.CreatedAt <= q.ClearedBefore {
			continue
		}
		if q.AfterSeq > 0 && msg.Seq <= q.AfterSeq {
			continue
		}
		if q.After > 0 && msg.CreatedAt <= q.After {
			continue
		}
		if q.Before > 0 && msg.CreatedAt >= q.Before {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MaxSeq(ctx context.Context, conversationId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seqs[conversationId], nil
}
