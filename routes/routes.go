package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"linkrite/handlers"
	"linkrite/middleware"
	"linkrite/session"
	"linkrite/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultBodyLimit = 1 << 20
	// Feed posts carry an inline base64 image; avatars are multipart files.
	feedBodyLimit   = 8 << 20
	avatarBodyLimit = 6 << 20
)

type Deps struct {
	Handler     *handlers.Handler
	Sessions    *session.Manager
	Hub         *websocket.Manager
	RateLimiter *middleware.IPRateLimiter
	CORSOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	h := d.Handler

	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		gin.Recovery(),
		cors.New(corsConfig(d.CORSOrigins)),
		middleware.BodyLimit(defaultBodyLimit, map[string]int64{
			"/api/feed":      feedBodyLimit,
			"/api/me/avatar": avatarBodyLimit,
		}),
	)
	if d.RateLimiter != nil {
		router.Use(middleware.RateLimit(d.RateLimiter))
	}

	router.GET("/health", h.Health)
	router.GET("/api/health", h.Health)

	// Public routes
	public := router.Group("/api")
	public.GET("/config/public", h.PublicConfig)
	public.POST("/auth/signup", h.Signup)
	public.POST("/auth/login", h.Login)
	public.GET("/auth/google/url", h.GoogleAuthURL)
	public.GET("/auth/google/callback", h.GoogleCallback)
	public.POST("/auth/google", h.GoogleCredential)
	public.POST("/auth/firebase", h.FirebaseSignIn)
	public.GET("/push/vapid-public-key", h.VAPIDPublicKey)

	if d.Hub != nil {
		router.GET("/ws", websocket.Handler(d.Hub, func(ctx context.Context, token string) (string, error) {
			claims, err := d.Sessions.Parse(ctx, token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		}, d.CORSOrigins))
	}

	// Session required
	protected := router.Group("/api")
	protected.Use(middleware.Session(d.Sessions))

	protected.POST("/auth/logout", h.Logout)

	// Profile
	protected.GET("/me", h.GetMyProfile)
	protected.PUT("/me", h.UpdateMyProfile)
	protected.POST("/me/avatar", h.UploadAvatar)
	protected.GET("/users/:uid", h.GetUser)

	// Earn board
	protected.GET("/earn", h.ListEarnPosts)
	protected.POST("/earn", h.CreateEarnPost)
	protected.GET("/earn/:id", h.GetEarnPost)
	protected.PUT("/earn/:id", h.UpdateEarnPost)
	protected.DELETE("/earn/:id", h.DeleteEarnPost)
	protected.POST("/earn/:id/payouts", h.RecordPayout)

	// Applications
	protected.POST("/earn/:id/applications", h.Apply)
	protected.GET("/earn/:id/applications", h.ListPostApplications)
	protected.GET("/applications", h.ListMyApplications)
	protected.PUT("/applications/:id/status", h.UpdateApplicationStatus)
	protected.DELETE("/applications/:id", h.WithdrawApplication)

	// Feed
	protected.GET("/feed", h.GetFeed)
	protected.POST("/feed", h.CreateFeedPost)
	protected.POST("/feed/:id/like", h.ToggleLike)
	protected.POST("/feed/:id/comments", h.AddComment)

	// Direct messages
	protected.GET("/dm", h.ListRooms)
	protected.POST("/dm", h.OpenRoom)
	protected.GET("/dm/:roomId", h.GetRoom)
	protected.GET("/dm/:roomId/messages", h.GetMessages)
	protected.POST("/dm/:roomId/messages", h.SendMessage)

	// Learn board
	protected.GET("/learn", h.ListLearnPosts)
	protected.POST("/learn", h.CreateLearnPost)

	// Push subscriptions
	protected.POST("/push/subscribe", h.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"code":  "not-found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not-found"})
	})

	return router
}
