package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/mercado-backend/internal/cache"
	"github.com/shinyyama/mercado-backend/internal/config"
	"github.com/shinyyama/mercado-backend/internal/events"
	"github.com/shinyyama/mercado-backend/internal/handler"
	appmw "github.com/shinyyama/mercado-backend/internal/middleware"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"github.com/shinyyama/mercado-backend/internal/service"
	"github.com/shinyyama/mercado-backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators. Everything except DB and Log
// may be nil; the matching feature then degrades.
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Cache    cache.Cache
	Events   events.Publisher
	Uploader storage.Uploader
	Verifier appmw.TokenVerifier
	Profiles service.ProfileSource
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func New(cfg *config.Config, d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(appmw.RequestContext)
	e.Use(appmw.RequestLogger(d.Log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, appmw.DevUserHeader},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.CORSAllowedSuffixes),
	}))

	productRepo := repository.NewProductRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	favoriteRepo := repository.NewFavoriteRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	convRepo := repository.NewConversationRepository(d.DB)
	offerRepo := repository.NewOfferRepository(d.DB)
	notificationRepo := repository.NewNotificationRepository(d.DB)
	purchaseRepo := repository.NewPurchaseRepository(d.DB)
	revenueRepo := repository.NewUserRevenueRepository(d.DB)

	productCache := service.NewProductCache(d.Cache, cfg.ProductCacheTTL, d.Log)
	notificationSvc := service.NewNotificationService(notificationRepo, d.Log)
	revenueSvc := service.NewRevenueService(revenueRepo)
	catalogSvc := service.NewCatalogService(productRepo, categoryRepo, favoriteRepo, userRepo, productCache, d.Log)
	offerSvc := service.NewOfferService(offerRepo, productRepo, notificationSvc, d.Events, d.Log)
	chatSvc := service.NewChatService(convRepo, productRepo, userRepo, notificationSvc, d.Events, d.Log)
	checkoutSvc := service.NewCheckoutService(service.CheckoutDeps{
		Purchases:     purchaseRepo,
		Products:      productRepo,
		Offers:        offerRepo,
		Conversations: convRepo,
		Users:         userRepo,
		Revenue:       revenueSvc,
		Notify:        notificationSvc,
		Cache:         productCache,
		Events:        d.Events,
		Log:           d.Log,
	})
	userSvc := service.NewUserService(userRepo, d.Profiles, d.Log)

	productHandler := handler.NewProductHandler(catalogSvc)
	offerHandler := handler.NewOfferHandler(offerSvc)
	convHandler := handler.NewConversationHandler(chatSvc)
	purchaseHandler := handler.NewPurchaseHandler(checkoutSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	userHandler := handler.NewUserHandler(userSvc)
	revenueHandler := handler.NewRevenueHandler(revenueSvc)
	uploadHandler := handler.NewUploadHandler(d.Uploader, d.Log)

	authMw := appmw.NewAuthMiddleware(d.Verifier, cfg.DevAuth)
	if d.Verifier == nil && !cfg.DevAuth {
		d.Log.Warn("no authenticator configured; authenticated routes will answer 401")
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    cfg.GitSHA,
			"build_time": cfg.BuildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/categories", productHandler.Categories)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.GET("/products/:id/offer-options", offerHandler.Options)
	api.GET("/users/:uid", userHandler.GetPublic)

	auth := authMw.RequireAuth
	api.POST("/products", productHandler.Create, auth)
	api.PUT("/products/:id", productHandler.Update, auth)
	api.POST("/products/:id/favorite", productHandler.ToggleFavorite, auth)
	api.POST("/products/:id/offers", offerHandler.Create, auth)
	api.POST("/products/:id/conversations", convHandler.Start, auth)
	api.GET("/products/:id/checkout", purchaseHandler.Quote, auth)
	api.POST("/products/:id/purchase", purchaseHandler.Purchase, auth)
	api.GET("/products/:id/purchase", purchaseHandler.GetByProduct, auth)

	api.GET("/me", userHandler.Me, auth)
	api.PUT("/me", userHandler.UpdateMe, auth)
	api.GET("/me/products", productHandler.Mine, auth)
	api.GET("/me/favorites", productHandler.Favorites, auth)
	api.GET("/me/purchases", purchaseHandler.MyPurchases, auth)
	api.GET("/me/sales", purchaseHandler.MySales, auth)
	api.GET("/me/revenue", revenueHandler.Get, auth)
	api.POST("/me/revenue/withdraw", revenueHandler.Withdraw, auth)

	api.GET("/offers", offerHandler.List, auth)
	api.GET("/offers/:id", offerHandler.Get, auth)
	api.POST("/offers/:id/accept", offerHandler.Accept, auth)
	api.POST("/offers/:id/reject", offerHandler.Reject, auth)
	api.POST("/offers/:id/cancel", offerHandler.Cancel, auth)

	api.GET("/conversations", convHandler.List, auth)
	api.GET("/conversations/:id", convHandler.Get, auth)
	api.GET("/conversations/:id/messages", convHandler.ListMessages, auth)
	api.POST("/conversations/:id/messages", convHandler.PostMessage, auth)
	api.POST("/conversations/:id/read", convHandler.MarkRead, auth)

	api.POST("/purchases/:id/ship", purchaseHandler.MarkShipped, auth)
	api.POST("/purchases/:id/receive", purchaseHandler.MarkDelivered, auth)
	api.POST("/purchases/:id/cancel", purchaseHandler.Cancel, auth)

	api.GET("/notifications", notificationHandler.List, auth)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead, auth)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead, auth)

	api.POST("/uploads", uploadHandler.Upload, auth)

	return &Server{e: e, log: d.Log}
}

// allowOrigin accepts localhost on any port plus hosts ending in one of suffixes.
func allowOrigin(suffixes []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(low)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, s := range suffixes {
			s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
			if s == "" {
				continue
			}
			if host == s || strings.HasSuffix(host, "."+s) {
				return true, nil
			}
		}
		return false, nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.log.Info("starting server", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
