package router

import (
	"net/http"

	"reflectionsmatch/config"
	"reflectionsmatch/controllers"
	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Initialize wires all routes and middlewares.
// Public routes, then authenticated routes (token), then validated routes
// (token + active user), then admin routes.
func Initialize(r *gin.Engine, cfg config.Configuration, s *controllers.Services) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Security.AllowedOrigins))
	r.Use(Metrics())
	r.Use(dbpkg.SetDBtoContext(s.Store.DB(), s.Store))
	r.Use(controllers.SetServicesToContext(s))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	log := Logger(s.Log)

	api := r.Group("/api")

	// Public (no auth)
	api.POST("/users", log, controllers.CreateUser)
	api.POST("/login", log, controllers.Login)
	api.POST("/refresh", log, controllers.Refresh)
	api.POST("/password/forgot", log, limiter.Middleware(), controllers.ForgotPasswordSendCode)
	api.POST("/password/check-token", log, controllers.CheckResetToken)
	api.POST("/password/reset", log, controllers.ResetPassword)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())
	auth.POST("/logout", log, controllers.Logout)

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	// o websocket aceita o token via ?access_token
	validated.GET("/stream", controllers.Stream)

	// Profile
	validated.GET("/me", log, controllers.Me)
	validated.PATCH("/me", log, controllers.UpdateMe)
	validated.DELETE("/me/milestone", log, controllers.ClearMilestone)
	validated.POST("/me/persona", log, limiter.Middleware(), controllers.GeneratePersona)
	validated.PATCH("/me/persona", log, controllers.UpdatePersona)
	validated.PUT("/me/linkedin", log, controllers.PutLinkedIn)
	validated.POST("/me/resume", log, controllers.UploadResume)
	validated.POST("/me/photo", log, controllers.UploadPhoto)

	// Reflections
	validated.GET("/reflections", log, controllers.ListReflections)
	validated.POST("/reflections", log, controllers.CreateTextReflection)
	validated.GET("/reflections/trending", log, controllers.TrendingTags)
	validated.GET("/reflections/activity", log, controllers.GetActivity)
	validated.POST("/reflections/capture", log, controllers.Capture)
	validated.POST("/reflections/upload", log, limiter.Middleware(), controllers.UploadReflection)
	validated.GET("/reflections/:id", log, controllers.GetReflection)
	validated.PATCH("/reflections/:id", log, controllers.PatchReflection)
	validated.DELETE("/reflections/:id", log, controllers.DeleteReflection)

	// Radar
	validated.GET("/radar/suggestions", log, controllers.GetSuggestions)
	validated.POST("/radar/suggestions", log, limiter.Middleware(), controllers.GenerateSuggestions)
	validated.GET("/radar/pursuits", log, controllers.ListPursuits)
	validated.POST("/radar/pursuits", log, controllers.SavePursuit)
	validated.GET("/radar/weekly", log, controllers.GetWeeklyRadar)
	validated.POST("/radar/weekly", log, limiter.Middleware(), controllers.RunWeeklyRadar)

	// Coaching / chat
	validated.POST("/coaching", log, limiter.Middleware(), controllers.Coach)
	validated.POST("/pursuits/:id/coaching", log, limiter.Middleware(), controllers.CoachPursuit)
	validated.POST("/chat", log, limiter.Middleware(), controllers.Chat)

	// Admin routes
	admin := validated.Group("/admin")
	admin.Use(Adminizer())
	admin.POST("/radar/run", log, controllers.RunRadarForAll)

	s.Log.Info("routes initialized")
}
