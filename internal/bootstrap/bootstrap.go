package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/examhub/internal/app/controllers"
	appMigrations "github.com/yigit/examhub/internal/app/migrations"
	appRepos "github.com/yigit/examhub/internal/app/repositories"
	appRoutes "github.com/yigit/examhub/internal/app/routes"
	appServices "github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/config"
	"github.com/yigit/examhub/internal/db"
	appMiddleware "github.com/yigit/examhub/internal/middleware"
	pkgAuth "github.com/yigit/examhub/internal/pkg/auth"
	"github.com/yigit/examhub/internal/pkg/captcha"
	"github.com/yigit/examhub/internal/pkg/logger"
	"github.com/yigit/examhub/internal/pkg/validation"
	"github.com/yigit/examhub/internal/pkg/websocket"
	"github.com/yigit/examhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	AuthMiddleware *appMiddleware.AuthMiddleware
	Redis          *redis.Client
	Hub            *websocket.Hub
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger

	stopHub context.CancelFunc
}

// Close releases the background resources owned by the dependencies
func (d *Dependencies) Close() {
	if d.stopHub != nil {
		d.stopHub()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := strings.ToLower(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", logLevel).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default administrator.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database, err := db.NewPostgresDB(ctx, cfg, logger.Component("db"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, database, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.AdminAccount{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword}
	if err := seed.CreateDefaultData(context.Background(), appRepos.NewUserRepository(database.Pool), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// setupCaptcha builds the captcha service on the configured store. It
// returns a nil interface when captcha is disabled.
func setupCaptcha(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (appServices.CaptchaService, error) {
	if !cfg.Captcha.Enabled {
		lgr.Warn().Msg("Captcha is disabled")
		return nil, nil
	}

	var store captcha.Store
	switch cfg.Captcha.Backend {
	case config.CaptchaBackendRedis:
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to reach redis")
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = captcha.NewRedisStore(deps.Redis)
	default:
		store = captcha.NewMemoryStore()
	}

	lgr.Info().Str("backend", cfg.Captcha.Backend).Msg("Captcha store configured")
	return captcha.NewService(store, cfg.Captcha.TTL.Std(), cfg.Captcha.Length), nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if err := validation.Register(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register validation rules")
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.JWT.AccessTokenExpiration.Std(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	captchaService, err := setupCaptcha(cfg, deps, lgr)
	if err != nil {
		return nil, err
	}

	// Live proctoring feed
	hubCtx, stopHub := context.WithCancel(context.Background())
	deps.stopHub = stopHub
	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	go deps.Hub.Run(hubCtx)

	repos := deps.Repos
	notifications := appServices.NewNotificationService(repos.NotificationRepository, logger.Component("notifications"))

	authService := appServices.NewAuthService(repos.UserRepository, deps.JWTService, captchaService, cfg.Captcha.Enabled, lgr)
	userService := appServices.NewUserService(repos.UserRepository, lgr)
	examService := appServices.NewExamService(repos.ExamRepository, database, lgr)
	questionService := appServices.NewQuestionService(
		repos.QuestionRepository,
		repos.AnswerRepository,
		repos.ExamRepository,
		database,
		notifications,
		cfg.Exam.SubmitGrace.Std(),
		lgr,
	)
	groupService := appServices.NewGroupService(repos.GroupRepository, repos.ExamRepository, database, notifications, lgr)
	proctoringService := appServices.NewProctoringService(
		repos.ProctoringRepository,
		repos.ExamRepository,
		repos.UserRepository,
		websocket.NewPublisher(deps.Hub),
		logger.Component("proctoring"),
	)
	ticketService := appServices.NewTicketService(repos.TicketRepository, notifications, lgr)

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(authService, lgr),
		User:         appControllers.NewUserController(userService, lgr),
		Exam:         appControllers.NewExamController(examService, lgr),
		Question:     appControllers.NewQuestionController(questionService, lgr),
		Group:        appControllers.NewGroupController(groupService, lgr),
		Proctoring:   appControllers.NewProctoringController(proctoringService, lgr),
		Ticket:       appControllers.NewTicketController(ticketService, lgr),
		Notification: appControllers.NewNotificationController(notifications, lgr),
		Health:       appControllers.NewHealthController(database, lgr),
		LiveMonitor:  websocket.NewHandler(deps.Hub, repos.ExamRepository, logger.Component("websocket")).HandleConnection,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
