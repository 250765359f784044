package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "qou_notification_bot/internal/domain/portal"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body><form>
<input type="hidden" name="__VIEWSTATE" value="vs123"/>
<input type="hidden" name="__EVENTVALIDATION" value="ev456"/>
<input type="text" name="txtUserID"/>
<input type="password" name="txtPassword"/>
</form></body></html>`

const studentHome = `<html><body><h1>البوابة الأكاديمية</h1></body></html>`

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakePortalServer speaks just enough ASP.NET to exercise the client: it
// hands out the hidden form fields, checks they are echoed back, and gates
// the student pages behind the session cookie.
func fakePortalServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Login.aspx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, loginPage)
			return
		}
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("__VIEWSTATE") != "vs123" {
			t.Error("hidden viewstate field was not echoed back")
		}
		if r.PostFormValue("txtUserID") != "s001" || r.PostFormValue("txtPassword") != "secret" {
			fmt.Fprint(w, loginPage)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "abc"})
		fmt.Fprint(w, studentHome)
	})
	for path, body := range pages {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("ASP.NET_SessionId"); err != nil || c.Value != "abc" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			fmt.Fprint(w, body)
		})
	}
	return httptest.NewServer(mux)
}

func login(t *testing.T, srv *httptest.Server) domain.Session {
	t.Helper()
	c := NewHTTPClient(srv.URL, 5*time.Second, testLogger())
	sess, err := c.Login(context.Background(), domain.Credentials{UserID: "s001", Password: "secret"})
	require.NoError(t, err)
	return sess
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := fakePortalServer(t, nil)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.Login(context.Background(), domain.Credentials{UserID: "s001", Password: "wrong"})
	assert.Error(t, err)
}

func TestLatestMessage(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/Messages.aspx": `<html><body>
<table id="gvMessages">
<tr class="row" data-id="42"><td>42</td><td>إعلان هام</td><td>الدائرة الأكاديمية</td><td>13/01/2026</td></tr>
<tr class="row" data-id="41"><td>41</td><td>قديم</td><td>م</td><td>10/01/2026</td></tr>
</table>
<div id="msgBody"> نص الرسالة </div>
</body></html>`,
	})
	defer srv.Close()

	msg, err := login(t, srv).LatestMessage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "42", msg.ID)
	assert.Equal(t, "إعلان هام", msg.Subject)
	assert.Equal(t, "الدائرة الأكاديمية", msg.Sender)
	assert.Equal(t, "نص الرسالة", msg.Body)
}

func TestLatestMessageEmptyInbox(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/Messages.aspx": `<html><body><table id="gvMessages"></table></body></html>`,
	})
	defer srv.Close()

	msg, err := login(t, srv).LatestMessage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestCourses(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/TermCourses.aspx": `<html><body><table id="gvCourses">
<tr class="header"><th>الرمز</th><th>المقرر</th><th>نصفي</th><th>نهائي</th><th>موعد النهائي</th></tr>
<tr class="row"><td>CS101</td><td>مقدمة في البرمجة</td><td>85</td><td>-</td><td>20/01/2026</td></tr>
</table></body></html>`,
	})
	defer srv.Close()

	courses, err := login(t, srv).Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, domain.Course{
		Code: "CS101", Name: "مقدمة في البرمجة", Midterm: "85", Final: "-", FinalDate: "20/01/2026",
	}, courses[0])
}

func TestAverage(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/Averages.aspx": `<html><body>
<span id="lblTermAvg">80.5</span><span id="lblCumulativeAvg">78.2</span>
</body></html>`,
	})
	defer srv.Close()

	avg, err := login(t, srv).Average(context.Background())
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, domain.Average{Term: "80.5", Cumulative: "78.2"}, *avg)
}

func TestAverageNotPostedYet(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/Averages.aspx": `<html><body></body></html>`,
	})
	defer srv.Close()

	avg, err := login(t, srv).Average(context.Background())
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestExamScheduleSelectsCategory(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/ExamSchedule.aspx": `<html><body><table id="gvExams">
<tr class="row"><td>CS101</td><td>مقدمة في البرمجة</td><td>13/01/2026</td><td>10:00</td><td>12:00</td><td>د. أحمد</td><td></td></tr>
</table></body></html>`,
	})
	defer srv.Close()

	sess := login(t, srv)
	events, err := sess.ExamSchedule(context.Background(), "20251", domain.ExamTypeMidterm)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ExamTypeMidterm, events[0].Type)
	assert.Equal(t, "10:00", events[0].From)

	_, err = sess.ExamSchedule(context.Background(), "20251", domain.ExamType("BOGUS"))
	assert.Error(t, err)
}

func TestSessionCookieIsCarried(t *testing.T) {
	srv := fakePortalServer(t, map[string]string{
		"/Student/LectureSchedule.aspx": `<html><body><table id="gvSchedule">
<tr class="row"><td>CS101</td><td>مقدمة في البرمجة</td><td>الثلاثاء</td><td>10:00</td><td>12:00</td><td>A</td><td>101</td><td>د. أحمد</td></tr>
</table></body></html>`,
	})
	defer srv.Close()

	meetings, err := login(t, srv).LectureSchedule(context.Background())
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "الثلاثاء", meetings[0].Day)
}
