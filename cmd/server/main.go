package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/artspot/gallery-api/internal/config"
	"github.com/artspot/gallery-api/internal/database"
	"github.com/artspot/gallery-api/internal/handler"
	"github.com/artspot/gallery-api/internal/middleware"
	"github.com/artspot/gallery-api/internal/queue"
	"github.com/artspot/gallery-api/internal/repository"
	"github.com/artspot/gallery-api/internal/router"
	"github.com/artspot/gallery-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	artists := repository.NewArtistRepo(db)
	artworks := repository.NewArtworkRepo(db)
	collections := repository.NewCollectionRepo(db)
	articles := repository.NewArticleRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	inquiries := repository.NewInquiryRepo(db)

	authSvc := service.NewAuthService(users, tokens, cfg.JWTSecret,
		cfg.AccessTTLMin, cfg.RefreshTTLDays, cfg.BcryptCost)
	inquirySvc := service.NewInquiryService(inquiries, artworks, service.QueueNotifier{})
	syncSvc := service.NewCmsSyncService(artists, artworks, collections, articles)

	// Queue consumers run for the life of the process and reconnect on
	// broker failure.
	go func() {
		if err := queue.StartNotificationConsumer(config.LoadSMTPConfig(), cfg.PublicBaseURL); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartCmsSyncConsumer(syncSvc); err != nil {
			log.Printf("cms sync consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Inquiries:   handler.NewInquiryHandler(inquirySvc),
		Artists:     handler.NewArtistHandler(artists, artworks),
		Artworks:    handler.NewArtworkHandler(artworks, artists),
		Collections: handler.NewCollectionHandler(collections, artworks),
		Articles:    handler.NewArticleHandler(articles),
		Favorites:   handler.NewFavoriteHandler(favorites, artworks),
		Webhook:     handler.NewWebhookHandler(cfg.WebhookSecret),
	}, router.Middlewares{
		AuthRateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		PublicCache:   middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
