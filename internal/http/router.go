package http

import (
	"time"

	"github.com/geocoder89/devnet/internal/auth"
	"github.com/geocoder89/devnet/internal/config"
	"github.com/geocoder89/devnet/internal/http/handlers"
	"github.com/geocoder89/devnet/internal/http/middlewares"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/geocoder89/devnet/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName  = "devnet-api"
	maxBodyBytes = 1 << 20
)

// UserRepo is everything the HTTP layer needs from the credential store.
type UserRepo interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.AccountDeleter
}

// Deps are built once in main (or a test) and shared by every request.
type Deps struct {
	Config   config.Config
	Tokens   *auth.Manager
	Hasher   *security.Hasher
	Revoked  handlers.Revoker
	Checker  middlewares.RevocationChecker
	Users    UserRepo
	Profiles handlers.ProfileStore
	Posts    handlers.PostStore
	Checks   []handlers.ReadyCheck

	// Prom and Gatherer are optional; without them no metrics are recorded or exposed.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// health + metrics
	health := handlers.NewHealthHandler(d.Checks...)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	timeout := d.Config.DBTimeout

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Checker, d.Prom)
	requireAuth := authMW.RequireAuth()

	loginLimiter := middlewares.NewRateLimiter(d.Config.LoginRateLimit, time.Minute)
	limitByIP := loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	writeLimiter := middlewares.NewRateLimiter(d.Config.WriteRateLimit, time.Minute)
	limitByUser := writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// Wire up handlers
	usersHandler := handlers.NewUsersHandler(d.Users, d.Users, d.Hasher, d.Tokens, timeout)
	authHandler := handlers.NewAuthHandler(d.Users, d.Hasher, d.Tokens, d.Revoked, d.Prom, timeout)
	profilesHandler := handlers.NewProfilesHandler(d.Profiles, d.Users, d.Prom, timeout)
	postsHandler := handlers.NewPostsHandler(d.Posts, d.Users, d.Prom, timeout)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	api.POST("/users", limitByIP, usersHandler.Register)

	api.GET("/auth", requireAuth, authHandler.Me)
	api.POST("/auth", limitByIP, authHandler.Login)
	api.POST("/auth/logout", requireAuth, authHandler.Logout)

	profile := api.Group("/profile")
	profile.GET("", profilesHandler.List)
	profile.GET("/user/:user_id", profilesHandler.ByUser)
	profile.GET("/me", requireAuth, profilesHandler.Me)
	profile.POST("", requireAuth, profilesHandler.Upsert)
	profile.DELETE("", requireAuth, profilesHandler.DeleteAccount)
	profile.PUT("/experience", requireAuth, profilesHandler.AddExperience)
	profile.DELETE("/experience/:exp_id", requireAuth, profilesHandler.DeleteExperience)
	profile.PUT("/education", requireAuth, profilesHandler.AddEducation)
	profile.DELETE("/education/:edu_id", requireAuth, profilesHandler.DeleteEducation)

	posts := api.Group("/posts", requireAuth)
	posts.POST("", limitByUser, postsHandler.Create)
	posts.GET("", postsHandler.List)
	posts.GET("/:id", postsHandler.Get)
	posts.DELETE("/:id", postsHandler.Delete)
	posts.PUT("/like/:id", postsHandler.Like)
	posts.PUT("/unlike/:id", postsHandler.Unlike)
	posts.POST("/comment/:id", limitByUser, postsHandler.AddComment)
	posts.DELETE("/comment/:id/:comment_id", postsHandler.DeleteComment)

	return r
}
