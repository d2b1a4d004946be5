package billing

import (
	"strings"

	"github.com/TillWegner/MemberSync/app/models"
)

// suspensionAttemptThreshold is the business bound on provider-side payment
// retries: the third failed attempt suspends the membership.
const suspensionAttemptThreshold = 3

// providerStatusMap is the fixed provider→local status table.
var providerStatusMap = map[string]string{
	"active":             models.MembershipStatusActive,
	"trialing":           models.MembershipStatusActive,
	"past_due":           models.MembershipStatusPastDue,
	"canceled":           models.MembershipStatusCancelled,
	"unpaid":             models.MembershipStatusSuspended,
	"incomplete":         models.MembershipStatusPending,
	"incomplete_expired": models.MembershipStatusExpired,
}

// MapProviderStatus translates a provider subscription status into the local
// membership status. The second return is false for statuses outside the
// table.
func MapProviderStatus(providerStatus string) (string, bool) {
	local, ok := providerStatusMap[strings.ToLower(strings.TrimSpace(providerStatus))]
	return local, ok
}

// NextStatusAfterPaymentFailure applies the suspension rule: at or past the
// attempt threshold the membership is suspended regardless of its current
// status; below it the provider's own retry schedule governs and the status
// is left untouched.
func NextStatusAfterPaymentFailure(current string, attemptCount int) string {
	if attemptCount >= suspensionAttemptThreshold {
		return models.MembershipStatusSuspended
	}
	return current
}
