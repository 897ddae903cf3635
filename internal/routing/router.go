// Package routing wires the HTTP routes to their handlers and installs the
// common middleware chain.
package routing

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-auth/internal/handlers"
	"storefront-auth/internal/managers"
	"storefront-auth/internal/middleware"
	"storefront-auth/internal/schemas"
	"storefront-auth/internal/tokens"
	"storefront-auth/internal/utils"
)

func InitRouter(databaseMgr managers.DatabaseMgr, queueMgr managers.QueueMgr, jwtMgr managers.JWTMgr,
	tokenGenerator *tokens.ActivationTokenGenerator, frontendURL string) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router, frontendURL)
	// Setup routes
	setupRoutes(router, databaseMgr, queueMgr, jwtMgr, tokenGenerator, frontendURL)

	return router
}

func setupCommonMiddleware(router *gin.Engine, frontendURL string) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{frontendURL, "http://localhost:19000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept, Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
	})
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, queueMgr managers.QueueMgr,
	jwtMgr managers.JWTMgr, tokenGenerator *tokens.ActivationTokenGenerator, frontendURL string) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("API_VERSION")
		if apiVersion == "" {
			apiVersion = "main:latest"
		}
		metadata := &schemas.MetadataDTO{
			ApiVersion: apiVersion,
			ApiName:    "AllNutrition Auth",
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the database
		conn, err := databaseMgr.GetPool().Acquire(c)
		if err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		defer conn.Release()
		c.Status(http.StatusOK)
	})

	userHdl := handlers.NewUserHandler(databaseMgr, jwtMgr, queueMgr, tokenGenerator, frontendURL)

	userRouter := router.Group("/users")
	userRouter.POST("/register/", userHdl.RegisterUser)
	userRouter.POST("/activate/", userHdl.ActivateUser)
	// The following routes require the user to be authenticated
	userRouter.GET("/me", jwtMgr.JWTMiddleware(), userHdl.GetMe)

	authRouter := router.Group("/auth")
	authRouter.POST("/token/", userHdl.ObtainTokenPair)
	authRouter.POST("/token/refresh/", userHdl.RefreshToken)
}
