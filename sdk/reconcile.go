package sdk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the reconciler lifecycle state
type State int32

const (
	// StateLoading means the initial history fetch has not completed
	StateLoading State = iota
	// StateReady means the local timeline is converged with the server
	StateReady
	// StateReconciling means a catch-up fetch is in flight
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReconciling:
		return "reconciling"
	}
	return "unknown"
}

// Transport is the slice of the API the reconciler needs. *Client satisfies it.
type Transport interface {
	GetConversation(ctx context.Context, conversationId string) (*ConversationView, error)
	ListMessagesAfterSeq(ctx context.Context, conversationId string, afterSeq int64, limit int) (*ListMessagesResponse, error)
	GetMaxSeq(ctx context.Context, conversationId string) (int64, error)
	SendMessage(ctx context.Context, req *SendMessageRequest) (*MessageInfo, error)
	MarkRead(ctx context.Context, conversationId string) error
}

// Entry is one message in the local timeline. Pending entries are optimistic
// sends that the server has not echoed back yet; their Id is a temp id.
type Entry struct {
	*MessageInfo
	Pending bool
}

const (
	tempIdPrefix        = "tmp-"
	reconcilePageLimit  = 100
	defaultPollInterval = 5 * time.Second
)

// Reconciler maintains an ordered, deduplicated local timeline for one
// conversation and converges it with the server log by polling. It never
// retries a rejected send on its own; failures surface to the caller.
type Reconciler struct {
	transport      Transport
	conversationId string
	selfSubjectId  string
	pollInterval   time.Duration

	mu          sync.Mutex
	state       State
	entries     []*Entry
	seenIds     map[string]bool
	lastSeenSeq int64 // seq of the newest server message merged, the paging cursor
	knownMaxSeq int64

	focusCh  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once

	// OnUpdate, when set before Run, is called after every merge that
	// changed the timeline. Called without the internal lock held.
	OnUpdate func()
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

// WithPollInterval overrides the default poll interval
func WithPollInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.pollInterval = d
	}
}

// NewReconciler creates a Reconciler for one conversation
func NewReconciler(transport Transport, conversationId, selfSubjectId string, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		transport:      transport,
		conversationId: conversationId,
		selfSubjectId:  selfSubjectId,
		pollInterval:   defaultPollInterval,
		state:          StateLoading,
		seenIds:        make(map[string]bool),
		focusCh:        make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Messages returns a snapshot of the local timeline in display order
func (r *Reconciler) Messages() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Load performs the initial history fetch. The conversation lookup is the
// preflight that fails fast when the caller is not a party; the server then
// applies the caller's clear-history watermark to every page, so cleared
// history never reappears.
func (r *Reconciler) Load(ctx context.Context) error {
	if _, err := r.transport.GetConversation(ctx, r.conversationId); err != nil {
		return err
	}

	r.mu.Lock()
	r.state = StateLoading
	r.mu.Unlock()

	if err := r.fetchForward(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.state = StateReady
	r.mu.Unlock()
	return nil
}

// Reconcile probes the server's max seq and fetches anything the local
// timeline has not seen. Cheap when nothing changed.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateLoading {
		r.mu.Unlock()
		return fmt.Errorf("reconciler not loaded")
	}
	known := r.knownMaxSeq
	r.mu.Unlock()

	maxSeq, err := r.transport.GetMaxSeq(ctx, r.conversationId)
	if err != nil {
		return err
	}
	if maxSeq <= known {
		return nil
	}

	r.mu.Lock()
	r.state = StateReconciling
	r.mu.Unlock()

	err = r.fetchForward(ctx)

	r.mu.Lock()
	r.state = StateReady
	r.mu.Unlock()
	return err
}

// fetchForward pages messages past the lastSeenSeq cursor into the timeline.
// After a page advanced the cursor, the read watermark follows: the server
// derives the unread counter from it, and catching up is reading.
func (r *Reconciler) fetchForward(ctx context.Context) error {
	merged := false
	for {
		r.mu.Lock()
		afterSeq := r.lastSeenSeq
		r.mu.Unlock()

		page, err := r.transport.ListMessagesAfterSeq(ctx, r.conversationId, afterSeq, reconcilePageLimit)
		if err != nil {
			return err
		}

		if r.merge(page.Messages, page.MaxSeq) {
			merged = true
		}
		if len(page.Messages) < reconcilePageLimit {
			break
		}
	}

	if !merged {
		return nil
	}
	return r.transport.MarkRead(ctx, r.conversationId)
}

// Send posts a message optimistically: a pending entry with a temp id is
// visible immediately, then replaced by the server echo. On failure the
// pending entry is removed and the error is returned to the caller.
func (r *Reconciler) Send(ctx context.Context, content *string, mediaUrl *string, mediaType int32) (*MessageInfo, error) {
	clientMsgId := uuid.NewString()
	tempId := tempIdPrefix + uuid.NewString()

	pending := &Entry{
		MessageInfo: &MessageInfo{
			Id:              tempId,
			ConversationId:  r.conversationId,
			ClientMsgId:     clientMsgId,
			SenderSubjectId: r.selfSubjectId,
			Content:         content,
			MediaUrl:        mediaUrl,
			MediaType:       mediaType,
			CreatedAt:       time.Now().UnixMilli(),
		},
		Pending: true,
	}

	r.mu.Lock()
	r.entries = append(r.entries, pending)
	r.mu.Unlock()
	r.notify()

	msg, err := r.transport.SendMessage(ctx, &SendMessageRequest{
		ConversationId: r.conversationId,
		ClientMsgId:    clientMsgId,
		Content:        content,
		MediaUrl:       mediaUrl,
		MediaType:      mediaType,
	})
	if err != nil {
		r.removePending(clientMsgId)
		r.notify()
		return nil, err
	}

	r.merge([]*MessageInfo{msg}, msg.Seq)
	return msg, nil
}

// SendText sends a plain text message optimistically
func (r *Reconciler) SendText(ctx context.Context, text string) (*MessageInfo, error) {
	return r.Send(ctx, &text, nil, MediaTypeText)
}

// merge folds server messages into the timeline: duplicates are dropped,
// pending entries are swapped for their server echo in place, and the
// result stays sorted by (created_at, id). Reports whether anything new
// landed.
func (r *Reconciler) merge(msgs []*MessageInfo, maxSeq int64) bool {
	r.mu.Lock()

	changed := false
	for _, msg := range msgs {
		if r.seenIds[msg.Id] {
			continue
		}

		if idx := r.pendingIndexLocked(msg.ClientMsgId); idx >= 0 {
			r.entries[idx] = &Entry{MessageInfo: msg}
		} else {
			r.entries = append(r.entries, &Entry{MessageInfo: msg})
		}
		r.seenIds[msg.Id] = true
		if msg.Seq > r.lastSeenSeq {
			r.lastSeenSeq = msg.Seq
		}
		changed = true
	}
	if maxSeq > r.knownMaxSeq {
		r.knownMaxSeq = maxSeq
	}

	if changed {
		sort.SliceStable(r.entries, func(i, j int) bool {
			a, b := r.entries[i], r.entries[j]
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt < b.CreatedAt
			}
			return a.Id < b.Id
		})
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
	return changed
}

func (r *Reconciler) pendingIndexLocked(clientMsgId string) int {
	for i, e := range r.entries {
		if e.Pending && e.ClientMsgId == clientMsgId {
			return i
		}
	}
	return -1
}

func (r *Reconciler) removePending(clientMsgId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.pendingIndexLocked(clientMsgId); idx >= 0 {
		r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	}
}

func (r *Reconciler) notify() {
	if r.OnUpdate != nil {
		r.OnUpdate()
	}
}

// Focus requests an immediate reconcile from the Run loop, used when the
// conversation regains user attention.
func (r *Reconciler) Focus() {
	select {
	case r.focusCh <- struct{}{}:
	default:
	}
}

// Stop terminates the Run loop
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

// Run loads the timeline and then polls for catch-up until Stop is called
// or the context is cancelled. Reconcile errors are transient by nature
// here; the next tick retries the probe.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Load(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopCh:
			return nil
		case <-ticker.C:
			_ = r.Reconcile(ctx)
		case <-r.focusCh:
			_ = r.Reconcile(ctx)
		}
	}
}
