package app

import (
	"context"
	"testing"
	"time"

	"qou_notification_bot/internal/domain/portal"
	"qou_notification_bot/internal/infra/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// examAt builds a midterm event starting at the given instant and an
// ExamService whose clock is pinned to the same day, so the today filter
// matches while the scheduler still measures lead time against the wall
// clock.
func examAt(t *testing.T, start time.Time, sink *fakeSink) (*ExamService, *scheduler.JobScheduler) {
	t.Helper()

	repo := newFakeAccountRepo(testAccount(1, "s001"))
	p := newFakePortal()
	p.session("s001").exams[portal.ExamTypeMidterm] = []portal.ExamEvent{{
		CourseCode: "CS101",
		CourseName: "مقدمة في البرمجة",
		Date:       start.Format("02/01/2006"),
		From:       start.Format("15:04"),
		To:         start.Add(2 * time.Hour).Format("15:04"),
		Type:       portal.ExamTypeMidterm,
	}}

	sched := scheduler.NewJobScheduler(sink, time.UTC, testLogger())
	s := NewExamService(repo, p, sink, sched, "1261", time.UTC, time.Minute, testLogger())
	s.now = func() time.Time { return start }
	return s, sched
}

func TestExamServiceArmsThreeRemindersForFutureExam(t *testing.T) {
	sink := newFakeSink()
	s, sched := examAt(t, time.Now().UTC().Add(3*time.Hour), sink)
	defer sched.Stop()

	s.RunDailyPass(context.Background())

	assert.Equal(t, 3, sched.Pending())
	texts := sink.textsTo(1)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "📝 امتحانات اليوم")
	assert.Contains(t, texts[0], "مقدمة في البرمجة")
}

func TestExamServiceSkipsElapsedSlots(t *testing.T) {
	sink := newFakeSink()
	// Ten minutes of lead time: the two-hour and half-hour slots already
	// passed, only the start ping can be armed.
	s, sched := examAt(t, time.Now().UTC().Add(10*time.Minute), sink)
	defer sched.Stop()

	s.RunDailyPass(context.Background())

	assert.Equal(t, 1, sched.Pending())
}

func TestExamServiceRerunReplacesInsteadOfDuplicating(t *testing.T) {
	sink := newFakeSink()
	s, sched := examAt(t, time.Now().UTC().Add(3*time.Hour), sink)
	defer sched.Stop()

	s.RunDailyPass(context.Background())
	s.RunDailyPass(context.Background())

	assert.Equal(t, 3, sched.Pending(), "same composite keys replace the armed jobs")
}

func TestExamServiceNoExamTodayIsSilent(t *testing.T) {
	repo := newFakeAccountRepo(testAccount(1, "s001"))
	p := newFakePortal()
	p.session("s001").exams[portal.ExamTypeFinalTheory] = []portal.ExamEvent{{
		CourseCode: "CS101",
		CourseName: "مقدمة في البرمجة",
		Date:       time.Now().UTC().Add(48 * time.Hour).Format("02/01/2006"),
		From:       "10:00",
		Type:       portal.ExamTypeFinalTheory,
	}}
	sink := newFakeSink()
	sched := scheduler.NewJobScheduler(sink, time.UTC, testLogger())
	defer sched.Stop()

	s := NewExamService(repo, p, sink, sched, "1261", time.UTC, time.Minute, testLogger())
	s.RunDailyPass(context.Background())

	assert.Zero(t, sink.count())
	assert.Zero(t, sched.Pending())
}
