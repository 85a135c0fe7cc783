package shopify

import (
	"testing"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/stretchr/testify/assert"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

func TestRecordFromCharge(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	isTest := true

	t.Run("maps a fully populated charge", func(t *testing.T) {
		charge := goshopify.RecurringApplicationCharge{
			Id:        42,
			Name:      "Pro",
			Status:    "ACTIVE",
			Test:      &isTest,
			TrialDays: 7,
			CreatedAt: &created,
		}

		record := recordFromCharge(charge)
		assert.Equal(t, domain.SubscriptionRecord{
			ID:        42,
			Name:      "Pro",
			Status:    domain.SubscriptionStatusActive,
			Test:      true,
			TrialDays: 7,
			CreatedAt: created,
		}, record)
	})

	t.Run("tolerates nil pointer fields", func(t *testing.T) {
		charge := goshopify.RecurringApplicationCharge{
			Id:     7,
			Name:   "Basic",
			Status: "pending",
		}

		record := recordFromCharge(charge)
		assert.Equal(t, int64(7), record.ID)
		assert.Equal(t, domain.SubscriptionStatusPending, record.Status)
		assert.False(t, record.Test)
		assert.Zero(t, record.TrialDays)
		assert.True(t, record.CreatedAt.IsZero())
	})
}
