package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/store"
)

// memStore is a small in-memory store for exercising handlers end to end
// through the real services.
type memStore struct {
	mu            sync.Mutex
	nextID        uint
	lawyers       []*model.LawyerProfile
	appointments  map[uint]*model.Appointment
	consultations map[uint]*model.Consultation
	dms           []model.DirectMessage
	chats         map[string]*model.Chat
	chatMessages  []model.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{
		nextID:        100,
		appointments:  make(map[uint]*model.Appointment),
		consultations: make(map[uint]*model.Consultation),
		chats:         make(map[string]*model.Chat),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListLawyers(ctx context.Context) ([]model.LawyerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LawyerProfile, 0, len(s.lawyers))
	for _, p := range s.lawyers {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) GetLawyer(ctx context.Context, id uint) (*model.LawyerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.lawyers {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) GetLawyerBySubject(ctx context.Context, subject string) (*model.LawyerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.lawyers {
		if p.Subject == subject {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) CreateLawyer(ctx context.Context, p *model.LawyerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	cp := *p
	s.lawyers = append(s.lawyers, &cp)
	return nil
}

func (s *memStore) SaveLawyer(ctx context.Context, p *model.LawyerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lawyers {
		if existing.ID == p.ID {
			cp := *p
			s.lawyers[i] = &cp
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *memStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	cp := *a
	s.appointments[a.ID] = &cp
	return nil
}

func (s *memStore) GetAppointment(ctx context.Context, id uint) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListLawyerAppointments(ctx context.Context, lawyerID uint, q store.AppointmentQuery) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if a.LawyerID == lawyerID && (q.Status == "" || a.Status == q.Status) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListUserAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) CountLawyerAppointments(ctx context.Context, lawyerID uint, status model.Status) (int64, error) {
	list, _ := s.ListLawyerAppointments(ctx, lawyerID, store.AppointmentQuery{Status: status})
	return int64(len(list)), nil
}

func (s *memStore) SetAppointmentStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = updatedAt
	return nil
}

func (s *memStore) CreateConsultation(ctx context.Context, c *model.Consultation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	cp := *c
	s.consultations[c.ID] = &cp
	return nil
}

func (s *memStore) GetConsultation(ctx context.Context, id uint) (*model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consultations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ListUserConsultations(ctx context.Context, userID string, f model.ConsultationFilter) ([]model.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Consultation{}
	for _, c := range s.consultations {
		if c.UserID == userID && (f.LawyerID == 0 || c.LawyerID == f.LawyerID) && (f.Status == "" || c.Status == f.Status) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateConsultation(ctx context.Context, id uint, ch model.ConsultationChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consultations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Apply(ch)
	return nil
}

func (s *memStore) SetConsultationStatus(ctx context.Context, id uint, status model.Status, updatedAt time.Time) error {
	return s.UpdateConsultation(ctx, id, model.ConsultationChanges{Status: &status, UpdatedAt: updatedAt})
}

func (s *memStore) CreateDirectMessage(ctx context.Context, m *model.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dms = append(s.dms, *m)
	return nil
}

func (s *memStore) ListParticipantMessages(ctx context.Context, participant string) ([]model.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DirectMessage
	for _, m := range s.dms {
		if m.SenderID == participant || m.ReceiverID == participant {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) ListConversationMessages(ctx context.Context, conversationID string) ([]model.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.DirectMessage{}
	for i := len(s.dms) - 1; i >= 0; i-- {
		if s.dms[i].ConversationID == conversationID {
			out = append(out, s.dms[i])
		}
	}
	return out, nil
}

func (s *memStore) MarkConversationRead(ctx context.Context, conversationID, receiver string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.dms {
		if s.dms[i].ConversationID == conversationID && s.dms[i].ReceiverID == receiver && !s.dms[i].Read {
			s.dms[i].Read = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindConversationID(ctx context.Context, a, b string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.dms) - 1; i >= 0; i-- {
		m := s.dms[i]
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			return m.ConversationID, nil
		}
	}
	return "", nil
}

func (s *memStore) CountUnread(ctx context.Context, receiver string) (int64, error) {
	msgs, _ := s.ListParticipantMessages(ctx, receiver)
	var n int64
	for _, m := range msgs {
		if m.ReceiverID == receiver && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *memStore) RecentParticipantMessages(ctx context.Context, participant string, perDirection int) ([]model.DirectMessage, error) {
	return s.ListParticipantMessages(ctx, participant)
}

func (s *memStore) CreateChat(ctx context.Context, c *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.chats[c.ID] = &cp
	return nil
}

func (s *memStore) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Chat{}
	for _, c := range s.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateChat(ctx context.Context, c *model.Chat) error {
	return s.CreateChat(ctx, c)
}

func (s *memStore) DeleteChat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, id)
	return nil
}

func (s *memStore) CreateChatMessage(ctx context.Context, m *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatMessages = append(s.chatMessages, *m)
	return nil
}

func (s *memStore) ListChatMessages(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ChatMessage{}
	for _, m := range s.chatMessages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// scriptedLLM streams fixed tokens and answers completions with reply.
type scriptedLLM struct {
	reply  string
	tokens []string
}

func (l *scriptedLLM) Name() string     { return "scripted" }
func (l *scriptedLLM) Models() []string { return []string{"scripted-1"} }

func (l *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: l.reply, Model: "scripted-1"}, nil
}

func (l *scriptedLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	var content string
	for i, tok := range l.tokens {
		if err := cb(tok, i); err != nil {
			return nil, err
		}
		content += tok
	}
	return &llm.CompletionResponse{Content: content, Model: "scripted-1", TokensOut: len(l.tokens)}, nil
}

// asCaller authenticates every request as the subject in X-Test-User.
func asCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUserID(r.Context(), r.Header.Get("X-Test-User"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(asCaller)
	return r
}
