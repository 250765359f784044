package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"qou_notification_bot/internal/domain/account"
	"qou_notification_bot/internal/domain/deadline"
	"qou_notification_bot/internal/domain/portal"
	idb "qou_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeAccountRepo is an in-memory account.Repository preserving insertion
// order.
type fakeAccountRepo struct {
	mu       sync.Mutex
	order    []int64
	accounts map[int64]*account.Account
	listErr  error
}

func newFakeAccountRepo(accounts ...*account.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[int64]*account.Account)}
	for _, a := range accounts {
		r.order = append(r.order, a.ChatID)
		r.accounts[a.ChatID] = a
	}
	return r
}

func testAccount(chatID int64, portalID string) *account.Account {
	return &account.Account{ChatID: chatID, PortalID: portalID, PortalPassword: "secret", IsActive: true}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ChatID]; ok {
		return idb.ErrDuplicateChatID
	}
	r.order = append(r.order, a.ChatID)
	r.accounts[a.ChatID] = a
	return nil
}

func (r *fakeAccountRepo) GetByChatID(_ context.Context, chatID int64) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[chatID]
	if !ok {
		return nil, idb.ErrAccountNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ChatID]; !ok {
		return idb.ErrAccountNotFound
	}
	r.accounts[a.ChatID] = a
	return nil
}

func (r *fakeAccountRepo) ListActive(_ context.Context) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*account.Account
	for _, id := range r.order {
		if r.accounts[id].IsActive {
			out = append(out, r.accounts[id])
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListAll(_ context.Context) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}
	return out, nil
}

func (r *fakeAccountRepo) SetLastMessageID(_ context.Context, chatID int64, messageID string) error {
	return r.setMarker(chatID, func(a *account.Account) { a.LastMessageID = sql.NullString{String: messageID, Valid: true} })
}

func (r *fakeAccountRepo) SetCourseSnapshot(_ context.Context, chatID int64, snapshot string) error {
	return r.setMarker(chatID, func(a *account.Account) { a.CourseSnapshot = sql.NullString{String: snapshot, Valid: true} })
}

func (r *fakeAccountRepo) SetAverageSnapshot(_ context.Context, chatID int64, snapshot string) error {
	return r.setMarker(chatID, func(a *account.Account) { a.AverageSnapshot = sql.NullString{String: snapshot, Valid: true} })
}

func (r *fakeAccountRepo) setMarker(chatID int64, apply func(*account.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[chatID]
	if !ok {
		return idb.ErrAccountNotFound
	}
	apply(a)
	return nil
}

// fakePortal maps portal user IDs to canned sessions.
type fakePortal struct {
	mu        sync.Mutex
	sessions  map[string]*fakeSession
	failUsers map[string]bool
	logins    int
}

func newFakePortal() *fakePortal {
	return &fakePortal{sessions: make(map[string]*fakeSession), failUsers: make(map[string]bool)}
}

func (p *fakePortal) session(userID string) *fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[userID]
	if !ok {
		s = &fakeSession{exams: make(map[portal.ExamType][]portal.ExamEvent)}
		p.sessions[userID] = s
	}
	return s
}

func (p *fakePortal) Login(_ context.Context, creds portal.Credentials) (portal.Session, error) {
	p.mu.Lock()
	p.logins++
	fail := p.failUsers[creds.UserID]
	p.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("portal rejected credentials for %s", creds.UserID)
	}
	return p.session(creds.UserID), nil
}

type fakeSession struct {
	message     *portal.Message
	messageErr  error
	courses     []portal.Course
	coursesErr  error
	meetings    []portal.Meeting
	average     *portal.Average
	discussions []portal.Discussion
	exams       map[portal.ExamType][]portal.ExamEvent
}

func (s *fakeSession) LatestMessage(context.Context) (*portal.Message, error) {
	return s.message, s.messageErr
}

func (s *fakeSession) Courses(context.Context) ([]portal.Course, error) {
	return s.courses, s.coursesErr
}

func (s *fakeSession) LectureSchedule(context.Context) ([]portal.Meeting, error) {
	return s.meetings, nil
}

func (s *fakeSession) Average(context.Context) (*portal.Average, error) {
	return s.average, nil
}

func (s *fakeSession) Discussions(context.Context) ([]portal.Discussion, error) {
	return s.discussions, nil
}

func (s *fakeSession) ExamSchedule(_ context.Context, _ string, examType portal.ExamType) ([]portal.ExamEvent, error) {
	return s.exams[examType], nil
}

// fakeSink records deliveries and can fail per recipient.
type fakeSink struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

type sentMessage struct {
	ChatID int64
	Text   string
}

func newFakeSink() *fakeSink {
	return &fakeSink{failFor: make(map[int64]bool)}
}

func (s *fakeSink) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[chatID] {
		return fmt.Errorf("delivery to %d failed", chatID)
	}
	s.sent = append(s.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSink) textsTo(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

// fakeDeadlineRepo is an in-memory deadline.Repository.
type fakeDeadlineRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*deadline.Deadline
}

func newFakeDeadlineRepo(items ...*deadline.Deadline) *fakeDeadlineRepo {
	r := &fakeDeadlineRepo{items: make(map[int64]*deadline.Deadline)}
	for _, d := range items {
		r.nextID++
		d.ID = r.nextID
		r.items[d.ID] = d
	}
	return r
}

func (r *fakeDeadlineRepo) Create(_ context.Context, d *deadline.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	r.items[d.ID] = d
	return nil
}

func (r *fakeDeadlineRepo) GetByID(_ context.Context, id int64) (*deadline.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, idb.ErrDeadlineNotFound
	}
	return d, nil
}

func (r *fakeDeadlineRepo) List(_ context.Context) ([]*deadline.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*deadline.Deadline
	for id := int64(1); id <= r.nextID; id++ {
		if d, ok := r.items[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDeadlineRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return idb.ErrDeadlineNotFound
	}
	delete(r.items, id)
	return nil
}
