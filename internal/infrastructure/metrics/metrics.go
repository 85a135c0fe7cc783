package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenExchanges counts token exchange attempts by result ("success", "failure").
	TokenExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "token_exchanges_total",
		Help: "Token exchange attempts by result",
	}, []string{"result"})

	// SubscriptionCacheLookups counts cache reads by result ("hit", "miss").
	SubscriptionCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_cache_lookups_total",
		Help: "Subscription status cache lookups by result",
	}, []string{"result"})

	// EntitlementDecisions counts gate outcomes
	// ("allowed", "redirected", "fail_open", "exempt").
	EntitlementDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_decisions_total",
		Help: "Entitlement gate decisions by outcome",
	}, []string{"outcome"})

	// HTTPRequests counts handled requests by method, route pattern, and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests",
	}, []string{"method", "path", "status"})
)
