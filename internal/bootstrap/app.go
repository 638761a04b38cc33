package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "blueprint-backend/internal/auth"
	"blueprint-backend/internal/couples"
	"blueprint-backend/internal/llm"
	openai "blueprint-backend/internal/llm/openai"
	"blueprint-backend/internal/notifications"
	"blueprint-backend/internal/queue"
	"blueprint-backend/internal/shared/config"
	"blueprint-backend/internal/shared/server"
	"blueprint-backend/internal/shared/storage/db"
	"blueprint-backend/internal/shared/storage/object"
	localstore "blueprint-backend/internal/shared/storage/object/local"
	s3store "blueprint-backend/internal/shared/storage/object/s3"
	"blueprint-backend/internal/users"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo         users.Repo
	CouplesRepo       couples.Repo
	NotificationsRepo notifications.Repo

	UsersService         *users.Service
	CouplesService       *couples.Service
	NotificationsService *notifications.Service
	CoupleProcessor      CoupleProcessor

	UsersHandler         *users.Handler
	CouplesHandler       *couples.Handler
	NotificationsHandler *notifications.Handler
	GoogleAuth           *googleauth.GoogleService
}

// CoupleProcessor allows callers to override analysis processing for tests.
type CoupleProcessor interface {
	ProcessCouple(ctx context.Context, coupleID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		CoupleHandler:       app.CouplesHandler,
		NotificationHandler: app.NotificationsHandler,
		UserHandler:         app.UsersHandler,
		GoogleAuth:          app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("BP_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var userRepo users.Repo
	var coupleRepo couples.Repo
	var notificationRepo notifications.Repo

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		coupleRepo = &couples.PGRepo{DB: app.DB}
		notificationRepo = notifications.NewPGRepo(app.DB)
	} else {
		userRepo = users.NewMemoryRepo()
		coupleRepo = couples.NewMemoryRepo()
		notificationRepo = notifications.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}

	notificationSvc := &notifications.Service{Repo: notificationRepo}
	userSvc := users.NewService(userRepo)

	coupleSvc := &couples.Service{
		Repo:            coupleRepo,
		Accounts:        userRepo,
		LLM:             llmClient,
		Notifier:        notificationSvc,
		Store:           app.Store,
		JobQueue:        app.Queue,
		PromptVersion:   app.Config.PromptVersion,
		GenerateTimeout: time.Duration(app.Config.GenerateTimeoutSec) * time.Second,
	}

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.UsersRepo = userRepo
	app.CouplesRepo = coupleRepo
	app.NotificationsRepo = notificationRepo
	app.UsersService = userSvc
	app.CouplesService = coupleSvc
	app.NotificationsService = notificationSvc
	app.CoupleProcessor = coupleSvc
	app.UsersHandler = users.NewHandler(userSvc)
	app.CouplesHandler = couples.NewHandler(coupleSvc)
	app.NotificationsHandler = notifications.NewHandler(notificationSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}
