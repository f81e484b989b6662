package journal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
	"gratitude-journal/internal/usecase/namedetect"
)

// ErrSessionNotFound возвращается для неизвестной или закрытой сессии.
var ErrSessionNotFound = errors.New("сессия не найдена")

// SessionView состояние сессии после очередного события.
type SessionView struct {
	ID              string                `json:"id"`
	State           namedetect.State      `json:"state"`
	Candidate       *namedetect.Candidate `json:"candidate,omitempty"`
	Dismissed       *namedetect.Candidate `json:"dismissed,omitempty"`
	Confirmed       *namedetect.Candidate `json:"confirmed,omitempty"`
	MentionedPeople []string              `json:"mentioned_people"`
}

// DefaultSessionIdleTTL через сколько бездействия сессия закрывается.
const DefaultSessionIdleTTL = 30 * time.Minute

type session struct {
	mu       sync.Mutex
	id       string
	names    *namedetect.NameCache
	detector *namedetect.Detector
	touched  atomic.Int64 // unix nano последнего события
}

func (sess *session) touch(now time.Time) {
	sess.touched.Store(now.UnixNano())
}

func (sess *session) idleSince(cutoff time.Time) bool {
	return sess.touched.Load() < cutoff.UnixNano()
}

type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) add(s *session) {
	r.mu.Lock()
	r.sessions[s.id] = s
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// take атомарно извлекает сессию: второй вызов с тем же id получит false.
func (r *registry) take(id string) (*session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
	return s, ok
}

func (r *registry) remove(id string) bool {
	_, ok := r.take(id)
	return ok
}

// evictIdle удаляет сессии без событий с cutoff и возвращает их число.
func (r *registry) evictIdle(cutoff time.Time) int {
	r.mu.Lock()
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
	return evicted
}

// StartSession открывает сессию составления записи с предзагруженным кэшем имён.
func (s *Service) StartSession(ctx context.Context) SessionView {
	names := namedetect.NewNameCache(s.kb, s.recorder, s.log)
	names.Preload(ctx)
	sess := &session{id: uuid.NewString(), names: names, detector: namedetect.NewDetector(names)}
	sess.touch(s.now())
	s.sessions.add(sess)
	s.log.Debug().Str("session", sess.id).Msg("сессия записи открыта")
	return sess.view()
}

// SessionState текущее состояние сессии.
func (s *Service) SessionState(id string) (SessionView, error) {
	return s.withSession(id, func(sess *session) SessionView {
		return sess.view()
	})
}

// SessionTextChanged обрабатывает новое содержимое поля ответа.
func (s *Service) SessionTextChanged(ctx context.Context, id, text string) (SessionView, error) {
	return s.withSession(id, func(sess *session) SessionView {
		upd := sess.detector.HandleTextChange(text)
		if upd.Dismissed != nil {
			metrics.IncNameEvent(metrics.NameEventAutoDismissed)
		}
		if upd.Candidate != nil {
			metrics.IncNameEvent(metrics.NameEventDetected)
			sess.names.Resolve(ctx, upd.Candidate.Word)
		}
		v := sess.view()
		v.Dismissed = upd.Dismissed
		return v
	})
}

// SessionSelection предлагает выделенное пользователем слово как имя.
func (s *Service) SessionSelection(ctx context.Context, id, text string, start, end int) (SessionView, error) {
	return s.withSession(id, func(sess *session) SessionView {
		if c, ok := sess.detector.DetectFromSelection(text, start, end); ok {
			metrics.IncNameEvent(metrics.NameEventDetected)
			sess.names.Resolve(ctx, c.Word)
		}
		return sess.view()
	})
}

// SessionConfirm отвечает на вопрос «это человек?».
func (s *Service) SessionConfirm(ctx context.Context, id string, isPerson bool) (SessionView, error) {
	return s.withSession(id, func(sess *session) SessionView {
		c, ok := sess.detector.Confirm(ctx, isPerson)
		v := sess.view()
		if !ok {
			return v
		}
		if isPerson {
			metrics.IncNameEvent(metrics.NameEventConfirmed)
			c.Confidence = sess.names.Classify(c.Word)
			v.Confirmed = &c
		} else {
			metrics.IncNameEvent(metrics.NameEventRejected)
		}
		return v
	})
}

// FinishSession сохраняет запись с людьми из сессии и закрывает её.
// Ожидающий подтверждения кандидат отбрасывается.
// Сессия забирается из реестра до сохранения, поэтому повторный вызов получает
// ErrSessionNotFound. При ошибке сохранения сессия возвращается обратно.
func (s *Service) FinishSession(ctx context.Context, id string, draft Draft) (domain.JournalEntry, error) {
	sess, ok := s.sessions.take(id)
	if !ok {
		return domain.JournalEntry{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	people := sess.detector.MentionedPeople()
	sess.mu.Unlock()

	draft.MentionedPeople = append(people, draft.MentionedPeople...)
	entry, err := s.SaveEntry(ctx, draft)
	if err != nil {
		sess.touch(s.now())
		s.sessions.add(sess)
		return domain.JournalEntry{}, err
	}
	return entry, nil
}

// DiscardSession закрывает сессию без сохранения.
func (s *Service) DiscardSession(id string) error {
	if !s.sessions.remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *Service) withSession(id string, fn func(*session) SessionView) (SessionView, error) {
	sess, ok := s.sessions.get(id)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch(s.now())
	return fn(sess), nil
}

// EvictIdleSessions закрывает сессии, в которых не было событий дольше ttl.
func (s *Service) EvictIdleSessions(ttl time.Duration) int {
	n := s.sessions.evictIdle(s.now().Add(-ttl))
	if n > 0 {
		s.log.Info().Int("evicted", n).Dur("ttl", ttl).Msg("закрыты брошенные сессии записи")
	}
	return n
}

// RunSessionJanitor раз в interval закрывает брошенные сессии, пока жив ctx.
func (s *Service) RunSessionJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	if interval <= 0 {
		interval = ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdleSessions(ttl)
		}
	}
}

func (sess *session) view() SessionView {
	v := SessionView{
		ID:              sess.id,
		State:           sess.detector.State(),
		MentionedPeople: sess.detector.MentionedPeople(),
	}
	if c, ok := sess.detector.Pending(); ok {
		c.Confidence = sess.names.Classify(c.Word)
		v.Candidate = &c
	}
	return v
}
