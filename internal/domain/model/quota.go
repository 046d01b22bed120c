package model

import "time"

const (
	DefaultQuotaWindow      = time.Hour
	DefaultQuotaMaxRequests = 50
)

// QuotaPolicy configures one check-and-consume call. Zero values fall back to
// the defaults above.
type QuotaPolicy struct {
	Window      time.Duration
	MaxRequests int
}

func (p QuotaPolicy) Normalize() QuotaPolicy {
	if p.Window <= 0 {
		p.Window = DefaultQuotaWindow
	}
	if p.MaxRequests <= 0 {
		p.MaxRequests = DefaultQuotaMaxRequests
	}
	return p
}

// QuotaDecision is the outcome of one check-and-consume call.
type QuotaDecision struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   int64 // epoch milliseconds of the next window start
}

// WindowStart truncates now to the nearest multiple of the window size,
// giving the fixed-window key shared by all requests in the same window.
func WindowStart(now time.Time, window time.Duration) int64 {
	ms := now.UnixMilli()
	return ms - ms%window.Milliseconds()
}
