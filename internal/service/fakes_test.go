package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/store"
)

// fakeStore is an in-memory implementation of every store interface the
// services depend on.
type fakeStore struct {
	mu            sync.Mutex
	nextID        uint
	lawyers       map[uint]*model.LawyerProfile
	appointments  map[uint]*model.Appointment
	consultations map[uint]*model.Consultation
	dms           []model.DirectMessage
	chats         map[string]*model.Chat
	chatMessages  []model.ChatMessage
	failWith      error
	getLawyerHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:        1,
		lawyers:       make(map[uint]*model.LawyerProfile),
		appointments:  make(map[uint]*model.Appointment),
		consultations: make(map[uint]*model.Consultation),
		chats:         make(map[string]*model.Chat),
	}
}

func (f *fakeStore) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) addLawyer(p model.LawyerProfile) *model.LawyerProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.id()
	}
	f.lawyers[p.ID] = &p
	return &p
}

func (f *fakeStore) addAppointment(a model.Appointment) *model.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.id()
	f.appointments[a.ID] = &a
	cp := a
	return &cp
}

func (f *fakeStore) addConsultation(c model.Consultation) *model.Consultation {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	f.consultations[c.ID] = &c
	cp := c
	return &cp
}

// Lawyers

func (f *fakeStore) ListLawyers(ctx context.Context) ([]model.LawyerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []model.LawyerProfile
	for _, p := range f.lawyers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getLawyerHits++
	p, ok := f.lawyers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.lawyers {
		if p.Subject == subject {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateLawyer(ctx context.Context, p *model.LawyerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.lawyers {
		if existing.Subject == p.Subject {
			return store.ErrDuplicate
		}
	}
	p.ID = f.id()
	cp := *p
	f.lawyers[p.ID] = &cp
	return nil
}

func (f *fakeStore) SaveLawyer(ctx context.Context, p *model.LawyerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lawyers[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	f.lawyers[p.ID] = &cp
	return nil
}

// Appointments

func (f *fakeStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.appointments[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetAppointment(ctx context.Context, id uint) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListLawyerAppointments(ctx context.Context, lawyerID uint, q store.AppointmentQuery) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.appointments {
		if a.LawyerID == lawyerID && (q.Status == "" || a.Status == q.Status) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Ascending {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) ListUserAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) CountLawyerAppointments(ctx context.Context, lawyerID uint, status model.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appointments {
		if a.LawyerID == lawyerID && (status == "" || a.Status == status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) SetAppointmentStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = updatedAt
	return nil
}

// Consultations

func (f *fakeStore) CreateConsultation(ctx context.Context, c *model.Consultation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	cp := *c
	f.consultations[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetConsultation(ctx context.Context, id uint) (*model.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consultations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListUserConsultations(ctx context.Context, userID string, flt model.ConsultationFilter) ([]model.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Consultation
	for _, c := range f.consultations {
		if c.UserID != userID {
			continue
		}
		if flt.LawyerID != 0 && c.LawyerID != flt.LawyerID {
			continue
		}
		if flt.Status != "" && c.Status != flt.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) UpdateConsultation(ctx context.Context, id uint, ch model.ConsultationChanges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consultations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Apply(ch)
	return nil
}

func (f *fakeStore) SetConsultationStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	return f.UpdateConsultation(ctx, id, model.ConsultationChanges{Status: &status, UpdatedAt: updatedAt})
}

// Direct messages

func (f *fakeStore) CreateDirectMessage(ctx context.Context, m *model.DirectMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.dms = append(f.dms, *m)
	return nil
}

func (f *fakeStore) ListParticipantMessages(ctx context.Context, participant string) ([]model.DirectMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DirectMessage
	for _, m := range f.dms {
		if m.SenderID == participant || m.ReceiverID == participant {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListConversationMessages(ctx context.Context, conversationID string) ([]model.DirectMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DirectMessage
	for _, m := range f.dms {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) MarkConversationRead(ctx context.Context, conversationID, receiver string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.dms {
		m := &f.dms[i]
		if m.ConversationID == conversationID && m.ReceiverID == receiver && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) FindConversationID(ctx context.Context, a, b string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.DirectMessage
	for i := range f.dms {
		m := &f.dms[i]
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
				latest = m
			}
		}
	}
	if latest == nil {
		return "", nil
	}
	return latest.ConversationID, nil
}

func (f *fakeStore) CountUnread(ctx context.Context, receiver string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.dms {
		if m.ReceiverID == receiver && !m.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) RecentParticipantMessages(ctx context.Context, participant string, perDirection int) ([]model.DirectMessage, error) {
	msgs, _ := f.ListParticipantMessages(ctx, participant)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	if len(msgs) > 2*perDirection {
		msgs = msgs[:2*perDirection]
	}
	return msgs, nil
}

// Chats

func (f *fakeStore) CreateChat(ctx context.Context, c *model.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.chats[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateChat(ctx context.Context, c *model.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	f.chats[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteChat(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[id]; !ok {
		return store.ErrNotFound
	}
	kept := f.chatMessages[:0]
	for _, m := range f.chatMessages {
		if m.ChatID != id {
			kept = append(kept, m)
		}
	}
	f.chatMessages = kept
	delete(f.chats, id)
	return nil
}

func (f *fakeStore) CreateChatMessage(ctx context.Context, m *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatMessages = append(f.chatMessages, *m)
	return nil
}

func (f *fakeStore) ListChatMessages(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range f.chatMessages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeLLM returns a canned reply and records requests.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	tokens   []string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return []string{"fake-1"} }

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake-1"}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	tokens, err := f.tokens, f.err
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	var content string
	for i, tok := range tokens {
		if err := cb(tok, i); err != nil {
			return nil, err
		}
		content += tok
	}
	return &llm.CompletionResponse{Content: content, Model: "fake-1", TokensOut: len(tokens)}, nil
}

func (f *fakeLLM) lastRequest() *llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// fakePublisher records published messages.
type fakePublisher struct {
	mu        sync.Mutex
	published []model.DirectMessage
	err       error
}

func (p *fakePublisher) PublishDirectMessage(ctx context.Context, m *model.DirectMessage) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.published = append(p.published, *m)
	return uint64(len(p.published)), nil
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
