package service

import (
	"time"

	"github.com/wso2/psd2-consent-management/pkg/utils"
)

// ExpirationPolicy evaluates time-based rules against an injectable clock
type ExpirationPolicy struct {
	now func() time.Time
}

// NewExpirationPolicy returns a policy backed by the wall clock
func NewExpirationPolicy() *ExpirationPolicy {
	return &ExpirationPolicy{now: time.Now}
}

// NewExpirationPolicyWithClock returns a policy reading time from now
func NewExpirationPolicyWithClock(now func() time.Time) *ExpirationPolicy {
	return &ExpirationPolicy{now: now}
}

// Now returns the current instant
func (p *ExpirationPolicy) Now() time.Time {
	return p.now()
}

// NowMillis returns the current instant in epoch milliseconds
func (p *ExpirationPolicy) NowMillis() int64 {
	return utils.TimeToMillis(p.now())
}

// Today returns the current calendar date
func (p *ExpirationPolicy) Today() string {
	return utils.FormatDate(p.now())
}

// Deadline returns now plus ttl in epoch milliseconds
func (p *ExpirationPolicy) Deadline(ttl time.Duration) int64 {
	return p.NowMillis() + ttl.Milliseconds()
}

// IsDeadlinePassed reports whether the absolute deadline lies in the past.
// A zero deadline never passes.
func (p *ExpirationPolicy) IsDeadlinePassed(deadline int64) bool {
	return deadline > 0 && p.NowMillis() > deadline
}

// IsConfirmationWindowClosed reports whether createdAt plus ttl lies in the past.
// A non-positive ttl disables the window.
func (p *ExpirationPolicy) IsConfirmationWindowClosed(createdAt int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return p.NowMillis() > createdAt+ttl.Milliseconds()
}

// IsDateBeforeToday reports whether the calendar date lies strictly before today
func (p *ExpirationPolicy) IsDateBeforeToday(date string) bool {
	return utils.IsDateBefore(date, p.now())
}
