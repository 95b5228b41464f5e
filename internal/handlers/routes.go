package handlers

import (
	"github.com/carecircle/backend/internal/middleware"
	"github.com/carecircle/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RouteConfig carries the middleware RegisterRoutes attaches per group.
// AuthLimit and UploadLimit may be nil.
type RouteConfig struct {
	Required    gin.HandlerFunc
	Optional    gin.HandlerFunc
	AuthLimit   gin.HandlerFunc
	UploadLimit gin.HandlerFunc
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// RegisterRoutes mounts the REST API under api (normally /api/v1)
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, cfg RouteConfig) {
	required, optional := cfg.Required, cfg.Optional
	admin := middleware.RequireAdmin()

	authGroup := api.Group("/auth")
	{
		limited := authGroup.Group("", chain(cfg.AuthLimit)...)
		limited.POST("/register", h.Register)
		limited.POST("/login", h.Login)
		limited.POST("/refresh", h.RefreshToken)

		authGroup.GET("/profile", required, h.GetProfile)
		authGroup.POST("/logout", required, h.Logout)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", optional, h.ListPosts)
		posts.GET("/user/:userId", optional, h.GetUserPosts)
		posts.GET("/:id", optional, h.GetPost)
		posts.POST("", required, h.CreatePost)
		posts.PUT("/:id", required, h.UpdatePost)
		posts.DELETE("/:id", required, h.DeletePost)
		posts.POST("/:id/like", required, h.likeHandler(models.TargetPost, "id"))
		posts.POST("/:id/dislike", required, h.dislikeHandler(models.TargetPost, "id"))
		posts.POST("/:id/report", required, h.reportHandler(models.TargetPost, "id"))
	}

	blogs := api.Group("/blogs")
	{
		blogs.GET("", optional, h.ListBlogs)
		blogs.GET("/featured", optional, h.FeaturedBlogs)
		blogs.GET("/categories", h.BlogCategories)
		blogs.GET("/slug/:slug", optional, h.GetBlogBySlug)
		blogs.GET("/user/:userId", optional, h.GetUserBlogs)
		blogs.GET("/:id", optional, h.GetBlog)
		blogs.POST("", required, h.CreateBlog)
		blogs.PUT("/:id", required, h.UpdateBlog)
		blogs.DELETE("/:id", required, h.DeleteBlog)
		blogs.POST("/:id/like", required, h.likeHandler(models.TargetBlog, "id"))
		blogs.POST("/:id/dislike", required, h.dislikeHandler(models.TargetBlog, "id"))
		blogs.POST("/:id/report", required, h.reportHandler(models.TargetBlog, "id"))
	}

	commentsGroup := api.Group("/comments")
	{
		commentsGroup.GET("", required, admin, h.ListAllComments)
		commentsGroup.GET("/:id", optional, h.ListComments)
		commentsGroup.POST("/:id", required, h.CreateComment)
		commentsGroup.PUT("/:id", required, h.UpdateComment)
		commentsGroup.DELETE("/:id", required, h.DeleteComment)
		commentsGroup.POST("/:id/reply", required, h.ReplyToComment)
		commentsGroup.POST("/:id/like", required, h.likeHandler(models.TargetComment, "id"))
		commentsGroup.POST("/:id/dislike", required, h.dislikeHandler(models.TargetComment, "id"))
		commentsGroup.POST("/:id/report", required, h.reportHandler(models.TargetComment, "id"))
	}

	eventsGroup := api.Group("/events")
	{
		eventsGroup.GET("", optional, h.ListEvents)
		eventsGroup.GET("/search", optional, h.SearchEvents)
		eventsGroup.GET("/stats", h.EventStats)
		eventsGroup.GET("/my-events", required, h.MyEvents)
		eventsGroup.GET("/:id", optional, h.GetEvent)
		eventsGroup.POST("", required, h.CreateEvent)
		eventsGroup.PUT("/:id", required, h.UpdateEvent)
		eventsGroup.DELETE("/:id", required, h.DeleteEvent)
		eventsGroup.POST("/:id/register", required, h.RegisterForEvent)
		eventsGroup.DELETE("/:id/register", required, h.UnregisterFromEvent)
		eventsGroup.GET("/:id/participants", required, h.EventParticipants)
		eventsGroup.PUT("/:id/approve", required, admin, h.DecideEvent)
		eventsGroup.POST("/:id/report", required, h.reportHandler(models.TargetEvent, "id"))
	}

	eventPosts := api.Group("/event-posts")
	{
		eventPosts.GET("/event/:eventId", optional, h.ListEventPosts)
		eventPosts.POST("", required, h.CreateEventPost)
		eventPosts.DELETE("/:id", required, h.DeleteEventPost)
		eventPosts.POST("/:id/like", required, h.likeHandler(models.TargetEventPost, "id"))
		eventPosts.POST("/:id/dislike", required, h.dislikeHandler(models.TargetEventPost, "id"))
		eventPosts.POST("/:id/report", required, h.reportHandler(models.TargetEventPost, "id"))
	}

	users := api.Group("/users")
	{
		users.GET("", required, admin, h.ListUsers)
		users.GET("/search", optional, h.SearchUsers)
		users.GET("/experts", optional, h.ListExperts)
		users.GET("/experts/:username", optional, h.GetExpert)
		users.GET("/doctor-status", required, h.DoctorStatus)
		users.GET("/:id", optional, h.GetUserProfile)
		users.GET("/:id/stats", optional, h.UserStats)
		users.PUT("/:id", required, h.UpdateUser)
		users.POST("/:id/follow", required, h.FollowUser)
		users.DELETE("/:id", required, admin, h.DeleteUser)
	}

	adminGroup := api.Group("/admin", required, admin)
	{
		adminGroup.GET("/dashboard", h.Dashboard)
		adminGroup.GET("/stats/categories", h.CategoryStats)
		adminGroup.GET("/stats/diseases", h.AdminDiseaseStats)
		adminGroup.PUT("/users/:id", h.AdminUpdateUser)
		adminGroup.PUT("/posts/:id/approve", h.ApprovePost)
		adminGroup.PUT("/comments/:id/approve", h.ApproveComment)
		adminGroup.GET("/reported", h.ReportedContent)
		adminGroup.GET("/pending", h.PendingContent)
		adminGroup.GET("/doctors/pending", h.PendingDoctors)
		adminGroup.PUT("/doctors/:id/approve", h.ApproveDoctor)
		adminGroup.PUT("/doctors/:id/reject", h.RejectDoctor)
	}

	notificationsGroup := api.Group("/notifications", required)
	{
		notificationsGroup.GET("", h.ListNotifications)
		notificationsGroup.PUT("/read-all", h.MarkAllNotificationsRead)
		notificationsGroup.PUT("/:id/read", h.MarkNotificationRead)
	}

	messages := api.Group("/messages", required)
	{
		messages.POST("/send", h.SendMessage)
		messages.GET("/conversations", h.ListConversations)
		messages.GET("/:id", h.GetConversation)
	}

	diseases := api.Group("/diseases")
	{
		diseases.GET("", h.ListDiseases)
		diseases.GET("/search", h.SearchDiseases)
		diseases.GET("/stats", h.DiseaseStats)
		diseases.GET("/:id", h.GetDisease)
		diseases.POST("", required, h.CreateDisease)
		diseases.PUT("/:id", required, h.UpdateDisease)
		diseases.DELETE("/:id", required, h.DeleteDisease)
	}

	diets := api.Group("/diets", required)
	{
		diets.GET("", h.ListDiets)
		diets.GET("/stats", h.DietStats)
		diets.POST("", h.CreateDiet)
		diets.PUT("/:id", h.UpdateDiet)
		diets.DELETE("/:id", h.DeleteDiet)
		diets.POST("/:id/complete", h.CompleteDiet)
		diets.PATCH("/:id/toggle", h.ToggleDiet)
	}

	exercises := api.Group("/exercises", required)
	{
		exercises.GET("", h.ListExercises)
		exercises.GET("/calendar", h.ExerciseCalendar)
		exercises.POST("", h.CreateExercise)
		exercises.PUT("/:id", h.UpdateExercise)
		exercises.DELETE("/:id", h.DeleteExercise)
	}

	api.GET("/stats/public", h.PublicStatsHandler)

	upload := api.Group("/upload", chain(required, cfg.UploadLimit)...)
	{
		upload.POST("/image", h.UploadImage)
		upload.POST("/images", h.UploadImages)
		upload.DELETE("/:fileName", h.DeleteUpload)
	}
}
