// Package portal holds the snapshot types scraped from the university's
// academic portal and the client interface the watchers consume.
package portal

// Credentials is one student's portal login pair.
type Credentials struct {
	UserID   string
	Password string
}

// Message is the most recent inbox message of an account.
type Message struct {
	ID      string
	Subject string
	Sender  string
	Date    string
	Body    string
}

// Course is one row of the current-term course list. Midterm and Final are
// the raw mark strings as the portal renders them ("-" when not yet posted).
type Course struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Midterm   string `json:"midterm"`
	Final     string `json:"final"`
	FinalDate string `json:"final_date"`
}

// Meeting is one weekly lecture slot. Day is the portal's Arabic weekday
// string; From/To are local clock times like "10:00".
type Meeting struct {
	CourseCode string
	CourseName string
	Day        string
	From       string
	To         string
	Building   string
	Room       string
	Lecturer   string
}

// Discussion is a scheduled discussion session. Date is a portal-formatted
// day/month/year string.
type Discussion struct {
	CourseCode string
	CourseName string
	Date       string
	From       string
	To         string
}

// DiscussionIdentity is the novelty-detection key of a session.
type DiscussionIdentity struct {
	CourseCode string
	Date       string
	From       string
}

func (d Discussion) Identity() DiscussionIdentity {
	return DiscussionIdentity{CourseCode: d.CourseCode, Date: d.Date, From: d.From}
}

// Average holds the term and cumulative averages as the portal prints them.
type Average struct {
	Term       string `json:"term"`
	Cumulative string `json:"cumulative"`
}

// ExamEvent is one scheduled exam for a course.
type ExamEvent struct {
	CourseCode string
	CourseName string
	Date       string
	From       string
	To         string
	Lecturer   string
	Note       string
	Type       ExamType
}

// ExamType identifies one of the portal's exam schedule categories.
type ExamType string

const (
	ExamTypeMidterm        ExamType = "MIDTERM"
	ExamTypeFinalTheory    ExamType = "FINAL_THEORY"
	ExamTypeFinalPractical ExamType = "FINAL_PRACTICAL"
	ExamTypeLevel          ExamType = "LEVEL"
)

// AllExamTypes lists every category the daily exam pass queries.
func AllExamTypes() []ExamType {
	return []ExamType{ExamTypeMidterm, ExamTypeFinalTheory, ExamTypeFinalPractical, ExamTypeLevel}
}

// Label returns the user-facing Arabic name of the exam category.
func (t ExamType) Label() string {
	switch t {
	case ExamTypeMidterm:
		return "نصفي"
	case ExamTypeFinalTheory:
		return "نهائي نظري"
	case ExamTypeFinalPractical:
		return "نهائي عملي"
	case ExamTypeLevel:
		return "مستوى"
	default:
		return string(t)
	}
}
