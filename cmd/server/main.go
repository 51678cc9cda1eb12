package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
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
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/api/handlers"
	"github.com/maheshrc27/crosspost/internal/api/middleware"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	ensureKeys(cfg)

	var (
		db          *sql.DB
		postRepo    repository.ScheduledPostRepository
		accountRepo repository.SocialAccountRepository
	)
	if cfg.PostgresURI != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("Database is unreachable: %v", err)
		}
		if err := repository.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		postRepo = repository.NewPostRepository(db)
		accountRepo = repository.NewSocialAccountRepository(db)
	} else {
		log.Println("POSTGRES_URI not set, scheduled posts and accounts are kept in memory")
		postRepo = repository.NewMemoryPostRepository()
		accountRepo = repository.NewMemorySocialAccountRepository()
	}

	var (
		stateRepo   repository.OAuthStateRepository
		redisClient *redis.Client
		asynqClient *asynq.Client
		enqueuer    queue.Enqueuer
		redisConn   asynq.RedisClientOpt
	)
	if cfg.RedisURI != "" {
		opts, err := repository.RedisOptions(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		redisClient = redis.NewClient(opts)
		stateRepo = repository.NewRedisStateRepository(redisClient)

		redisConn = asynq.RedisClientOpt{Addr: opts.Addr, Username: opts.Username, Password: opts.Password, DB: opts.DB}
		asynqClient = asynq.NewClient(redisConn)
		enqueuer = asynqClient
	} else {
		stateRepo = repository.NewMemoryStateRepository()
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	newClient := service.NewClientFactory(httpClient)

	platformService := service.NewPlatformService(cfg, newClient)
	accountService := service.NewAccountService(accountRepo, platformService, cfg.SecretKey)
	publishService := service.NewPublishService(cfg, newClient, accountService)
	ayrshareService := service.NewAyrshareService(cfg, httpClient)
	ayrsharePublisher := service.NewAyrsharePublisher(ayrshareService)
	scheduleService := service.NewScheduleService(postRepo, cfg.SecretKey)
	contentService := service.NewContentService(service.NewOpenAIGenerator(service.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}))

	var mediaService service.MediaService
	if cfg.R2.AccountID != "" {
		r2Client, err := service.NewR2Client(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to configure R2: %v", err)
		}
		mediaService = service.NewMediaService(cfg.R2, r2Client)
	} else {
		mediaService = service.NewMediaService(cfg.R2, nil)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIKey)

	platform := handlers.NewPlatformHandler(platformService, accountService, stateRepo, cfg)
	app.Get("/auth/:platform", platform.BeginAuth)
	app.Get("/auth/:platform/callback", platform.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(publishService, ayrsharePublisher, scheduleService, enqueuer)
	api.Post("/post", post.CreatePost)
	api.Post("/publish", post.Publish)
	api.Post("/schedule-post", post.SchedulePost)
	api.Get("/schedule-post", post.ListScheduledPosts)

	ayrshare := handlers.NewAyrshareHandler(ayrshareService)
	api.Post("/ayrshare/post", ayrshare.CreatePost)
	api.Get("/ayrshare/profiles", ayrshare.ListProfiles)
	api.Post("/ayrshare/upload", ayrshare.UploadMedia)
	api.Get("/ayrshare/analytics", ayrshare.Analytics)
	api.Get("/ayrshare/analytics/:id", ayrshare.PostAnalytics)
	api.Get("/ayrshare/history", ayrshare.History)
	api.Delete("/ayrshare/post/:id", ayrshare.DeletePost)

	content := handlers.NewContentHandler(contentService)
	api.Post("/generate-content", content.GenerateContent)
	api.Post("/generate-batch", content.GenerateBatch)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)

	// social accounts api routes
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Post("/accounts/remove", platform.DeleteSocialAccount)
	api.Post("/accounts/refresh", platform.RefreshSocialAccount)

	//queue
	queueW := queue.NewQueue(postRepo, publishService, cfg.SecretKey)

	// cron jobs
	duePostsJob := job.NewDuePostsJob(postRepo, queueW)

	c := cron.New()
	c.AddFunc("@every 1m", duePostsJob.PublishDue)
	c.Start()

	var asynqServer *asynq.Server
	if asynqClient != nil {
		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		go func() {
			mux := asynq.NewServeMux()
			mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, func() {
		c.Stop()
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
		if asynqClient != nil {
			asynqClient.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
		if db != nil {
			closeDB(db)
		}
	})
}

// ensureKeys fills in keys that were not configured. Generated keys only
// live for the process, so stored tokens become unreadable after a restart.
func ensureKeys(cfg *config.Config) {
	if cfg.SecretKey == "" {
		key, err := utils.GenerateRandomKey(24)
		if err != nil {
			log.Fatalf("Failed to generate secret key: %v", err)
		}
		cfg.SecretKey = key
		log.Println("Warning: SECRET_KEY not set, using a generated key for this process")
	}
	switch len(cfg.SecretKey) {
	case 16, 24, 32:
	default:
		log.Fatalf("SECRET_KEY must be 16, 24 or 32 bytes, got %d", len(cfg.SecretKey))
	}

	if cfg.APIKey == "" {
		key, err := utils.GenerateRandomKey(32)
		if err != nil {
			log.Fatalf("Failed to generate API key: %v", err)
		}
		cfg.APIKey = key
		log.Printf("API_KEY not set, generated key for this process: %s", key)
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	cleanup()
	log.Println("Server shutdown complete.")
}
