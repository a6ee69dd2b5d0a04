// Package ledger holds the credit-accounting rules: pure state transitions
// over a user's balances, with no I/O. The store applies these transitions
// inside its transactions; handlers use them for display math.
package ledger

import (
	"time"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

const (
	// SignupFreeReadings is granted once, when a user record is created.
	SignupFreeReadings = 2

	// LifetimeYearlyLimit caps lifetime-member readings per annual window.
	LifetimeYearlyLimit = 365
)

// CreditSource identifies which balance a consumed reading was charged to.
type CreditSource string

const (
	SourceFree     CreditSource = "FREE"
	SourcePaid     CreditSource = "PAID"
	SourceLifetime CreditSource = "LIFETIME"
)

// yearElapsed reports whether now is at least one year past start.
func yearElapsed(start time.Time, now time.Time) bool {
	return !now.Before(start.AddDate(1, 0, 0))
}

// ResetDue reports whether the member's annual window has rolled over. The
// reset itself is applied by ConsumeOneCredit, not assumed here.
func ResetDue(u domain.User, now time.Time) bool {
	if !u.IsLifetimeMember {
		return false
	}
	if u.LifetimeYearStart == nil {
		return false
	}
	return yearElapsed(*u.LifetimeYearStart, now)
}

// EffectiveYearReadings returns the annual-window counter with the lazy
// reset taken into account: once the window has rolled over, the stored
// counter no longer counts against the member.
func EffectiveYearReadings(u domain.User, now time.Time) int {
	if ResetDue(u, now) {
		return 0
	}
	return u.LifetimeReadingsThisYear
}

// HasCredits reports whether the user may start a new reading.
func HasCredits(u domain.User, now time.Time) bool {
	if u.FreeReadingsLeft > 0 || u.PaidReadingsLeft > 0 {
		return true
	}
	return u.IsLifetimeMember && EffectiveYearReadings(u, now) < LifetimeYearlyLimit
}

// ConsumeOneCredit deducts a single reading credit, free balance first,
// then paid, then the lifetime annual quota. It never deducts partially and
// never drives a balance negative; when nothing is available it returns
// domain.ErrNoCredits and the user unchanged.
func ConsumeOneCredit(u domain.User, now time.Time) (domain.User, CreditSource, error) {
	switch {
	case u.FreeReadingsLeft > 0:
		u.FreeReadingsLeft--
		return u, SourceFree, nil
	case u.PaidReadingsLeft > 0:
		u.PaidReadingsLeft--
		return u, SourcePaid, nil
	case u.IsLifetimeMember:
		if ResetDue(u, now) {
			start := now
			u.LifetimeYearStart = &start
			u.LifetimeReadingsThisYear = 0
		}
		if u.LifetimeReadingsThisYear >= LifetimeYearlyLimit {
			return u, "", domain.ErrNoCredits
		}
		u.LifetimeReadingsThisYear++
		return u, SourceLifetime, nil
	default:
		return u, "", domain.ErrNoCredits
	}
}

// ApplyPayment credits a completed transaction to the user. Re-applying a
// lifetime upgrade to an existing member leaves the anchor dates untouched;
// the caller's idempotency guard should prevent the call in the first place.
func ApplyPayment(u domain.User, t domain.Transaction, now time.Time) domain.User {
	if t.IsLifetimeUpgrade {
		if !u.IsLifetimeMember {
			since := now
			start := now
			u.IsLifetimeMember = true
			u.LifetimeMemberSince = &since
			u.LifetimeYearStart = &start
			u.LifetimeReadingsThisYear = 0
		}
		return u
	}
	if t.Type == domain.TransactionTip {
		u.FreeReadingsLeft += t.ReadingsGranted
		return u
	}
	u.PaidReadingsLeft += t.ReadingsGranted
	return u
}

// ApplyReferralReward grants the referrer their one free reading.
func ApplyReferralReward(u domain.User) domain.User {
	u.FreeReadingsLeft++
	return u
}

// TotalAvailable is the client-facing "readings left" figure.
func TotalAvailable(u domain.User, now time.Time) int {
	if u.IsLifetimeMember {
		return LifetimeYearlyLimit - EffectiveYearReadings(u, now)
	}
	return u.FreeReadingsLeft + u.PaidReadingsLeft
}
