package main

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/application/webhook_handlers"
	"github.com/asap-xt/shopify-currency-converter/internal/config"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	appmiddleware "github.com/asap-xt/shopify-currency-converter/internal/infrastructure/middleware"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/repository"
	shopifyinfra "github.com/asap-xt/shopify-currency-converter/internal/infrastructure/shopify"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Session store: MongoDB when configured, in-memory otherwise. The memory
	// store loses every merchant's credential on restart; fine for development,
	// not for deployment.
	var sessionStore ports.SessionStore
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		sessionStore = repository.NewMongoSessionRepository(client.Database(cfg.MongoDatabase))
		logger.Info().Msg("Using MongoDB session store")
	} else {
		sessionStore = repository.NewMemorySessionStore()
		logger.Warn().Msg("MONGODB_URI not set, sessions are held in memory")
	}

	// Subscription cache: Redis when configured, in-memory otherwise.
	var subscriptionCache ports.SubscriptionCache
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to parse REDIS_URL")
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		subscriptionCache = repository.NewRedisSubscriptionCache(redisClient, cfg.SubscriptionCacheTTL)
		logger.Info().Msg("Using Redis subscription cache")
	} else {
		subscriptionCache = repository.NewMemorySubscriptionCache(cfg.SubscriptionCacheTTL)
		logger.Warn().Msg("REDIS_URL not set, subscription cache is held in memory")
	}

	// Initialize infrastructure
	tokenDecoder := shopifyinfra.NewSessionTokenDecoder(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret)
	tokenExchanger := shopifyinfra.NewTokenExchangeClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.ExchangeTimeout, logger)
	billingClient := shopifyinfra.NewBillingClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, logger)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret)

	// Initialize application services
	sessionService := application.NewSessionService(sessionStore, tokenExchanger, logger)
	billingService := application.NewBillingService(subscriptionCache, billingClient, cfg.AdminHost, cfg.AppHandle, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, sessionService, billingService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewSubscriptionUpdateHandler(logger, billingService))

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.CollectMetrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes (no session token required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation - public
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	r.Get(appmiddleware.BouncePath, bounceHandler(cfg.ShopifyAPIKey, logger))
	r.Get("/billing/callback", billingCallbackHandler(billingService, cfg.AppURL, logger))

	// Webhook endpoint: POST /webhooks/shopify
	r.Post("/webhooks/shopify", webhookHandler(webhookVerifier, webhookDispatcher, logger))

	// Routes behind the session and subscription gates
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.VerifyRequest(tokenDecoder, sessionService, logger))
		r.Use(appmiddleware.RequireSubscription(billingService, sessionService, logger))

		r.Get("/", appHandler(logger))
		r.Get("/api/subscription-status", subscriptionStatusHandler(billingService, logger))
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       65 * time.Second,
	}

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// bouncePage loads App Bridge, which acquires a fresh session token and
// reloads the shopify-reload target with id_token attached.
var bouncePage = template.Must(template.New("bounce").Parse(`<!DOCTYPE html>
<html>
<head>
<meta name="shopify-api-key" content="{{.APIKey}}">
<script src="https://cdn.shopify.com/shopifycloud/app-bridge.js"></script>
</head>
<body></body>
</html>
`))

// bounceHandler serves the minimal page whose sole job is to re-acquire a
// fresh session token client-side and retry the original URL.
func bounceHandler(apiKey string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if !isShopDomain(shop) {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := bouncePage.Execute(w, map[string]string{"APIKey": apiKey}); err != nil {
			logger.Error().Err(err).Msg("Failed to render bounce page")
		}
	}
}

// billingCallbackHandler completes the plan purchase flow: Shopify redirects
// here after the merchant accepts a charge. The cached entitlement is
// invalidated so the next request re-evaluates, then the merchant lands back
// inside the embedded app.
func billingCallbackHandler(billingService *application.BillingService, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if !isShopDomain(shop) {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		if err := billingService.Invalidate(r.Context(), shop); err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to invalidate subscription cache after billing callback")
			// The stale entry ages out within the TTL; still send the merchant back into the app.
		}

		http.Redirect(w, r, appURL+"/?shop="+shop, http.StatusFound)
	}
}

// webhookHandler handles Shopify webhook requests
func webhookHandler(
	verifier *shopifyinfra.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			logger.Warn().Msg("Missing X-Shopify-Topic header")
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		hmacHeader := r.Header.Get("X-Shopify-Hmac-SHA256")
		if err := verifier.Verify(payload, hmacHeader); err != nil {
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		shop := r.Header.Get("X-Shopify-Shop-Domain")
		if shop == "" {
			var webhookData map[string]interface{}
			if err := json.Unmarshal(payload, &webhookData); err == nil {
				if d, ok := webhookData["domain"].(string); ok {
					shop = d
				} else if d, ok := webhookData["myshopify_domain"].(string); ok {
					shop = d
				}
			}
		}

		event := &domain.WebhookEvent{
			Topic:    topic,
			Shop:     shop,
			Payload:  payload,
			Verified: true,
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Str("shop", shop).Msg("Failed to dispatch webhook event")
			// Return 500 to trigger Shopify retry
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

// appHandler is the embedded app entry point. Rendering lives in the checkout
// and admin UI extensions; the backend only reports the authenticated tenant.
func appHandler(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		shop := domain.GetShopFromContext(ctx)
		session := domain.GetSessionFromContext(ctx)

		response := map[string]any{
			"shop":  shop,
			"scope": session.Scope,
		}
		if status := domain.GetEntitlementFromContext(ctx); status != nil {
			response["has_active_subscription"] = status.HasActiveSubscription
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// subscriptionStatusHandler reports the shop's current entitlement. The route
// is exempt from the subscription gate so the admin UI can always load the
// plan state.
func subscriptionStatusHandler(billingService *application.BillingService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		shop := domain.GetShopFromContext(ctx)
		session := domain.GetSessionFromContext(ctx)

		status, err := billingService.Entitlement(ctx, shop, session.AccessToken)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to fetch subscription status")
			http.Error(w, "Failed to fetch subscription status", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

// isShopDomain validates an externally supplied shop parameter. Only canonical
// myshopify domains are accepted; anything else is rejected before it reaches
// a redirect or cache key.
func isShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, domain.MyshopifyDomainSuffix) {
		return false
	}
	handle := domain.ShopHandle(shop)
	if handle == "" {
		return false
	}
	for _, c := range handle {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}
