package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/creatorsync/configs"
	"github.com/maheshrc27/creatorsync/internal/api/handlers"
	"github.com/maheshrc27/creatorsync/internal/api/middleware"
	job "github.com/maheshrc27/creatorsync/internal/jobs"
	"github.com/maheshrc27/creatorsync/internal/oauthstate"
	"github.com/maheshrc27/creatorsync/internal/providers"
	"github.com/maheshrc27/creatorsync/internal/queue"
	"github.com/maheshrc27/creatorsync/internal/repository"
	"github.com/maheshrc27/creatorsync/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	profileRepo := repository.NewCreatorProfileRepository(db)
	accountRepo := repository.NewSocialAccountRepository(db)
	tokenRepo := repository.NewOAuthTokenRepository(db)
	contentRepo := repository.NewContentRepository(db)
	audienceRepo := repository.NewAudienceRepository(db)
	syncJobRepo := repository.NewSyncJobRepository(db)

	registry := providers.NewRegistry(
		providers.NewYoutubeAdapter(cfg.Providers["youtube"]),
		providers.NewTiktokAdapter(cfg.Providers["tiktok"]),
		providers.NewInstagramAdapter(cfg.Providers["instagram"]),
		providers.NewFacebookAdapter(cfg.Providers["facebook"]),
		providers.NewTwitchAdapter(cfg.Providers["twitch"]),
		providers.NewTwitterAdapter(cfg.Providers["twitter"]),
	)

	codec := oauthstate.NewCodec(cfg.SecretKey)
	enqueuer := queue.NewEnqueuer(client)
	thumbnailService := service.NewThumbnailService(*cfg)

	integrationService := service.NewIntegrationService(*cfg, registry, codec, profileRepo, accountRepo, tokenRepo, contentRepo, syncJobRepo, enqueuer)
	syncService := service.NewSyncService(*cfg, registry, accountRepo, tokenRepo, contentRepo, audienceRepo, thumbnailService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	platform := handlers.NewPlatformHandler(integrationService, syncService, *cfg)
	app.Get("/social-platforms/connect/:provider", platform.Connect)
	app.Get("/social-platforms/callback/:provider", platform.Callback)

	api := app.Group("/social-platforms")
	api.Use(authMiddleware.AuthMiddleware())
	api.Post("/accounts", platform.ListAccounts)
	api.Post("/sync/:accountId", platform.SyncAccount)
	api.Post("/disconnect/:accountId", platform.DisconnectAccount)
	api.Post("/stats", platform.Stats)
	api.Post("/reauthenticate/:accountId", platform.Reauthenticate)

	// cron jobs
	scheduledSyncJob := job.NewScheduledSyncJob(accountRepo, profileRepo, syncJobRepo, enqueuer)

	// queue
	queueW := queue.NewQueue(syncService, syncJobRepo)

	c := cron.New()
	c.AddFunc("@every 00h15m00s", scheduledSyncJob.EnqueueStaleAccounts)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSyncAccount, queueW.HandleSyncAccountTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
