package domain

import "time"

// Subscription charge statuses as reported by the Shopify Admin API.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusDeclined = "declined"
	SubscriptionStatusExpired  = "expired"
)

// SubscriptionRecord is one recurring application charge of a shop.
type SubscriptionRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Test      bool      `json:"test"`
	TrialDays int       `json:"trial_days"`
	CreatedAt time.Time `json:"created_at"`
}

// GrantsAccessAt reports whether this record entitles the shop at the given time.
// An active charge always grants access. A pending charge grants access while its
// trial window is still open: now < createdAt + trialDays. The window is
// half-open, so access ends at exactly createdAt + trialDays.
func (r SubscriptionRecord) GrantsAccessAt(now time.Time) bool {
	switch r.Status {
	case SubscriptionStatusActive:
		return true
	case SubscriptionStatusPending:
		if r.TrialDays <= 0 {
			return false
		}
		trialEnd := r.CreatedAt.Add(time.Duration(r.TrialDays) * 24 * time.Hour)
		return now.Before(trialEnd)
	default:
		return false
	}
}

// EntitlementStatus is the cached entitlement state of a shop, derived from its
// subscription records at FetchedAt.
type EntitlementStatus struct {
	Shop                  string               `json:"shop"`
	HasActiveSubscription bool                 `json:"has_active_subscription"`
	Subscriptions         []SubscriptionRecord `json:"subscriptions"`
	FetchedAt             time.Time            `json:"fetched_at"`
}

// NewEntitlementStatus evaluates the subscription records for a shop at the
// given time and builds the cacheable entitlement entry.
func NewEntitlementStatus(shop string, records []SubscriptionRecord, now time.Time) *EntitlementStatus {
	status := &EntitlementStatus{
		Shop:          shop,
		Subscriptions: records,
		FetchedAt:     now,
	}
	for _, r := range records {
		if r.GrantsAccessAt(now) {
			status.HasActiveSubscription = true
			break
		}
	}
	return status
}

// Fresh reports whether the entry is still inside its TTL at the given time.
// Entries at or past the TTL boundary are stale and must be treated as misses.
func (e *EntitlementStatus) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.FetchedAt) < ttl
}
