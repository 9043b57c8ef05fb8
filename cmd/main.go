package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/franciscosanchezn/insight-hub-api/docs" // Import generated docs
	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
	"github.com/franciscosanchezn/insight-hub-api/internal/config"
	"github.com/franciscosanchezn/insight-hub-api/internal/controllers"
	"github.com/franciscosanchezn/insight-hub-api/internal/database"
	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

var (
	db            *gorm.DB
	configuration *config.Config
	registry      *prometheus.Registry
	sessions      *auth.SessionIssuer

	authController      *controllers.AuthController
	adminController     *controllers.AdminController
	googleController    *controllers.GoogleController
	communityController *controllers.CommunityController
)

// @title Insight Hub API
// @version 1.0
// @description Google sign-in, Classroom and Calendar proxy and community board
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Metrics registry shared by the HTTP middleware and the login flow
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkPanicErr(auth.RegisterMetrics(registry))

	// Initialize services and controllers
	setupControllers(configuration)

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
		gin.SetMode(gin.ReleaseMode)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		URL:      conf.DatabaseURL,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))
	return db
}

// setupControllers builds the services, the login flow and the HTTP controllers
func setupControllers(conf *config.Config) {
	accountService := services.NewAccountService(db)
	adminService := services.NewAdminService(db)
	forumService := services.NewForumService(db, accountService)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	googleService := services.NewGoogleService(conf.Google.ClassroomBaseURL, conf.Google.CalendarBaseURL, httpClient)

	var err error
	sessions, err = auth.NewSessionIssuer(conf.JWTSecret)
	checkPanicErr(err)

	orchestrator, err := auth.NewOrchestrator(conf.OAuth, auth.Dependencies{
		States:     services.NewPendingStateService(db),
		Accounts:   accountService,
		Sessions:   sessions,
		HTTPClient: httpClient,
	})
	checkPanicErr(err)

	var refresher controllers.TokenRefresher
	if orchestrator.Configured() {
		refresher = orchestrator.Exchanger()
	}

	authController = controllers.NewAuthController(orchestrator, sessions, accountService)
	adminController = controllers.NewAdminController(adminService, sessions, conf.AdminTokenTTL)
	googleController = controllers.NewGoogleController(googleService, accountService, refresher)
	communityController = controllers.NewCommunityController(forumService, accountService, adminService)
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	router := gin.New()

	httpMetrics, err := middleware.NewHTTPMetrics(registry)
	checkPanicErr(err)

	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log.StandardLogger()),
		cors.New(cors.Config{
			AllowOrigins:     configuration.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		httpMetrics.Middleware(),
	)

	setupRoutes(router, httpMetrics)
	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, httpMetrics *middleware.HTTPMetrics) {
	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", httpMetrics.Handler())

	limiter := middleware.NewRateLimiter(configuration.RateLimitPerSecond, configuration.RateLimitBurst)
	requireSession := middleware.SessionAuth(sessions)

	authApi := router.Group("/auth")
	authApi.Use(limiter.Middleware())
	{
		authApi.GET("/login", authController.Login)
		authApi.GET("/callback", authController.Callback)
		authApi.GET("/me", authController.Me)
		authApi.POST("/logout", authController.Logout)
	}

	adminApi := router.Group("/admin")
	{
		adminApi.POST("/login", limiter.Middleware(), adminController.Login)
		adminApi.GET("/me", requireSession, middleware.RequireAdmin(), adminController.Me)
	}

	// Google data of the signed in account
	accountApi := router.Group("/")
	accountApi.Use(requireSession, middleware.RequireAccount())
	{
		accountApi.GET("/classroom/courses", googleController.GetCourses)
		accountApi.GET("/classroom/courses/:id/coursework", googleController.GetCoursework)
		accountApi.GET("/calendar/events", googleController.GetCalendarEvents)
	}

	communityApi := router.Group("/community")
	{
		communityApi.GET("/posts", communityController.ListPosts)
		communityApi.GET("/posts/:id", communityController.GetPost)
		communityApi.POST("/posts", requireSession, communityController.CreatePost)
		communityApi.POST("/posts/:id/comments", requireSession, middleware.RequireAccount(), communityController.CreateComment)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "insight-hub-api",
	})
}
