package portal

import "context"

// Client authenticates one account against the portal. Implementations must
// be safe for concurrent use; the returned Session belongs to a single
// watcher pass and is not shared.
type Client interface {
	Login(ctx context.Context, creds Credentials) (Session, error)
}

// Session exposes the per-account fetch operations. Any returned error means
// the caller should skip this account for the current cycle; the next
// scheduled cycle is the retry.
type Session interface {
	// LatestMessage returns the head of the inbox, or nil when the inbox
	// is empty.
	LatestMessage(ctx context.Context) (*Message, error)
	Courses(ctx context.Context) ([]Course, error)
	LectureSchedule(ctx context.Context) ([]Meeting, error)
	// Average returns nil when the portal has no averages posted yet.
	Average(ctx context.Context) (*Average, error)
	Discussions(ctx context.Context) ([]Discussion, error)
	ExamSchedule(ctx context.Context, term string, examType ExamType) ([]ExamEvent, error)
}
