package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/auth"
	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/billing"
	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/listings"
	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/reservations"
	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/verification"
	"github.com/hanapbahay/hanapbahay-go/internal/app/middleware"
	stripeprovider "github.com/hanapbahay/hanapbahay-go/internal/app/services/stripe"
	"github.com/hanapbahay/hanapbahay-go/internal/pkg/config"
)

type AppHandlers struct {
	Auth         *auth.AuthHandlers
	Listings     *listings.ListingHandlers
	Reservations *reservations.ReservationHandlers
	Billing      *billing.BillingHandlers
	Webhook      *billing.WebhookHandlers
	Verification *verification.VerificationHandlers
}

func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, cfg, log)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	listingRepo := listings.NewPostgresListingRepo(dbPool, log)
	reservationRepo := reservations.NewPostgresReservationRepo(dbPool, log)
	billingRepo := billing.NewPostgresBillingRepo(dbPool, log)
	verificationRepo := verification.NewPostgresVerificationRepo(dbPool, log)

	provider := stripeprovider.NewProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	authService := auth.NewAuthService(authRepo, cfg, log)
	listingService := listings.NewService(listingRepo, log)
	reservationService := reservations.NewService(reservationRepo, listingRepo, log)
	gcashService := billing.NewGcashService(billingRepo, log)
	webhookService := billing.NewWebhookService(billingRepo, provider, cfg.Stripe.PriceTable, log)
	subscriptionService := billing.NewSubscriptionService(billingRepo, log)
	verificationService := verification.NewService(verificationRepo, log)

	return &AppHandlers{
		Auth:         auth.NewAuthHandlers(authService, log),
		Listings:     listings.NewListingHandlers(listingService, log),
		Reservations: reservations.NewReservationHandlers(reservationService, log),
		Billing:      billing.NewBillingHandlers(gcashService, subscriptionService, log),
		Webhook:      billing.NewWebhookHandlers(provider, webhookService, log),
		Verification: verification.NewVerificationHandlers(verificationService, log),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, cfg *config.Config, log *zap.Logger) {
	jwtService := auth.NewJWTService()
	jwtConfig := auth.JWTConfig{
		SecretKey:       cfg.JWTSecretKey,
		TokenExpiration: 24 * time.Hour,
		Logger:          log,
	}
	requireAuth := middleware.RequireAuth(jwtService, jwtConfig, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public surface: account creation, the catalog, listing reads, and the
	// provider webhook (authenticated by its signature, not by a session).
	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/login", h.Auth.Login)
	r.GET("/plans", h.Billing.Plans)
	r.GET("/listings", h.Listings.List)
	r.GET("/listings/:id", h.Listings.Get)
	r.POST("/webhooks/stripe", h.Webhook.HandleStripeEvent)

	authed := r.Group("/", requireAuth)
	{
		authed.POST("/listings", h.Listings.Create)
		authed.PUT("/listings/:id", h.Listings.Update)

		authed.POST("/reservations", h.Reservations.Create)
		authed.GET("/reservations", h.Reservations.List)
		authed.PUT("/reservations/confirm", h.Reservations.Confirm)
		authed.DELETE("/reservations/:id", h.Reservations.Delete)

		authed.POST("/subscription/gcash-payment", h.Billing.SubmitGcash)
		authed.GET("/subscription", h.Billing.CurrentSubscription)
		authed.POST("/subscription/unsubscribe", h.Billing.Unsubscribe)

		authed.POST("/users/id-verification", h.Verification.SubmitID)
	}

	admin := r.Group("/admin", requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/payments/gcash", h.Billing.ListGcash)
		admin.GET("/payments/gcash/:id", h.Billing.GetGcash)
		admin.POST("/payments/gcash/:id/approve", h.Billing.ApproveGcash)
		admin.POST("/payments/gcash/:id/decline", h.Billing.DeclineGcash)

		admin.POST("/plans", h.Billing.CreatePlan)
		admin.PUT("/plans/:id", h.Billing.UpdatePlan)

		admin.POST("/users/:id/verify", h.Verification.Review)
		admin.POST("/listings/:id/unarchive", h.Listings.AdminUnarchive)
	}
}
