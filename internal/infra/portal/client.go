// Package portal implements the domain portal client against the
// university's ASP.NET web portal: cookie-session form login and HTML table
// scraping. The watchers never see this package; they depend on the domain
// interfaces only.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	domain "qou_notification_bot/internal/domain/portal"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const (
	loginPath       = "/Login.aspx"
	inboxPath       = "/Student/Messages.aspx"
	coursesPath     = "/Student/TermCourses.aspx"
	schedulePath    = "/Student/LectureSchedule.aspx"
	averagesPath    = "/Student/Averages.aspx"
	discussionsPath = "/Student/Discussions.aspx"
	examsPath       = "/Student/ExamSchedule.aspx"
)

// The portal's exam pages are selected by a numeric category parameter.
var examTypeCodes = map[domain.ExamType]string{
	domain.ExamTypeMidterm:        "1",
	domain.ExamTypeFinalTheory:    "2",
	domain.ExamTypeFinalPractical: "3",
	domain.ExamTypeLevel:          "0",
}

// HTTPClient logs accounts into the portal over HTTP. Login builds a fresh
// cookie jar per session, so one HTTPClient serves all watchers concurrently.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	logger  *logrus.Entry
}

var _ domain.Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Entry) *HTTPClient {
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout, logger: logger}
}

// Login performs the ASP.NET form round-trip: fetch the login page, echo its
// hidden viewstate fields back with the credentials, and verify the portal
// redirected into the student area.
func (c *HTTPClient) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	hc := &http.Client{Jar: jar, Timeout: c.timeout}

	doc, err := c.get(ctx, hc, c.baseURL+loginPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load login page: %w", err)
	}

	form := url.Values{}
	doc.Find("input[type=hidden]").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok {
			return
		}
		form.Set(name, sel.AttrOr("value", ""))
	})
	form.Set("txtUserID", creds.UserID)
	form.Set("txtPassword", creds.Password)
	form.Set("btnLogin", "Login")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	loggedIn, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	// The login page re-renders its own form on rejected credentials.
	if loggedIn.Find("input[name=txtPassword]").Length() > 0 {
		return nil, fmt.Errorf("portal rejected credentials for %s", creds.UserID)
	}

	c.logger.WithField("portal_id", creds.UserID).Debug("Portal login succeeded")
	return &httpSession{client: c, hc: hc}, nil
}

func (c *HTTPClient) get(ctx context.Context, hc *http.Client, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned status %d for %s", resp.StatusCode, rawURL)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// httpSession is one authenticated cookie session.
type httpSession struct {
	client *HTTPClient
	hc     *http.Client
}

var _ domain.Session = (*httpSession)(nil)

func (s *httpSession) LatestMessage(ctx context.Context) (*domain.Message, error) {
	doc, err := s.client.get(ctx, s.hc, s.client.baseURL+inboxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inbox: %w", err)
	}
	row := doc.Find("table#gvMessages tr.row").First()
	if row.Length() == 0 {
		return nil, nil
	}
	cells := cellTexts(row)
	if len(cells) < 4 {
		return nil, fmt.Errorf("unexpected inbox row layout (%d cells)", len(cells))
	}
	msg := &domain.Message{
		ID:      row.AttrOr("data-id", cells[0]),
		Subject: cells[1],
		Sender:  cells[2],
		Date:    cells[3],
	}
	msg.Body = strings.TrimSpace(doc.Find("div#msgBody").First().Text())
	return msg, nil
}

func (s *httpSession) Courses(ctx context.Context) ([]domain.Course, error) {
	doc, err := s.client.get(ctx, s.hc, s.client.baseURL+coursesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	var courses []domain.Course
	doc.Find("table#gvCourses tr.row").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 5 {
			return
		}
		courses = append(courses, domain.Course{
			Code:      cells[0],
			Name:      cells[1],
			Midterm:   cells[2],
			Final:     cells[3],
			FinalDate: cells[4],
		})
	})
	return courses, nil
}

func (s *httpSession) LectureSchedule(ctx context.Context) ([]domain.Meeting, error) {
	doc, err := s.client.get(ctx, s.hc, s.client.baseURL+schedulePath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lecture schedule: %w", err)
	}
	var meetings []domain.Meeting
	doc.Find("table#gvSchedule tr.row").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 8 {
			return
		}
		meetings = append(meetings, domain.Meeting{
			CourseCode: cells[0],
			CourseName: cells[1],
			Day:        cells[2],
			From:       cells[3],
			To:         cells[4],
			Building:   cells[5],
			Room:       cells[6],
			Lecturer:   cells[7],
		})
	})
	return meetings, nil
}

func (s *httpSession) Average(ctx context.Context) (*domain.Average, error) {
	doc, err := s.client.get(ctx, s.hc, s.client.baseURL+averagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch averages: %w", err)
	}
	term := strings.TrimSpace(doc.Find("span#lblTermAvg").Text())
	cumulative := strings.TrimSpace(doc.Find("span#lblCumulativeAvg").Text())
	if term == "" && cumulative == "" {
		return nil, nil
	}
	return &domain.Average{Term: term, Cumulative: cumulative}, nil
}

func (s *httpSession) Discussions(ctx context.Context) ([]domain.Discussion, error) {
	doc, err := s.client.get(ctx, s.hc, s.client.baseURL+discussionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discussions: %w", err)
	}
	var discussions []domain.Discussion
	doc.Find("table#gvDiscussions tr.row").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 5 {
			return
		}
		discussions = append(discussions, domain.Discussion{
			CourseCode: cells[0],
			CourseName: cells[1],
			Date:       cells[2],
			From:       cells[3],
			To:         cells[4],
		})
	})
	return discussions, nil
}

func (s *httpSession) ExamSchedule(ctx context.Context, term string, examType domain.ExamType) ([]domain.ExamEvent, error) {
	code, ok := examTypeCodes[examType]
	if !ok {
		return nil, fmt.Errorf("unknown exam type %q", examType)
	}
	u := fmt.Sprintf("%s%s?term=%s&type=%s", s.client.baseURL, examsPath, url.QueryEscape(term), code)
	doc, err := s.client.get(ctx, s.hc, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s exam schedule: %w", examType, err)
	}
	var events []domain.ExamEvent
	doc.Find("table#gvExams tr.row").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 7 {
			return
		}
		events = append(events, domain.ExamEvent{
			CourseCode: cells[0],
			CourseName: cells[1],
			Date:       cells[2],
			From:       cells[3],
			To:         cells[4],
			Lecturer:   cells[5],
			Note:       cells[6],
			Type:       examType,
		})
	})
	return events, nil
}

func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	return cells
}
