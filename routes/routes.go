package routes

import (
	"net/http"
	"regexp"

	"quizhub/handlers"
	"quizhub/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// quizslug accepts what NormalizeSlug can turn into a non-empty slug:
// letters, digits, dashes and spaces with at least one alphanumeric.
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9\s-]*[A-Za-z0-9][A-Za-z0-9\s-]*$`)

func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("quizslug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	}
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	catalogHandler *handlers.CatalogHandler,
	sittingHandler *handlers.SittingHandler,
	progressHandler *handlers.ProgressHandler,
	uploadHandler *handlers.UploadHandler,
	jwtSecret string,
) {
	RegisterValidators()

	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public catalog routes; a token is honored when present so
		// staff can see drafts
		api.GET("/quizzes", catalogHandler.ListQuizzes)
		api.GET("/quizzes/:slug", middleware.OptionalAuth(jwtSecret), catalogHandler.GetQuiz)
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/categories/:name/quizzes", catalogHandler.ListQuizzesByCategory)

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Quiz taking
			protected.GET("/quizzes/:slug/take", sittingHandler.TakeQuiz)
			protected.POST("/quizzes/:slug/take", sittingHandler.SubmitAnswer)

			// Progress dashboard
			protected.GET("/progress", progressHandler.Dashboard)

			// Staff-only routes
			staff := protected.Group("/")
			staff.Use(middleware.RequireStaff())
			{
				staff.POST("/quizzes", catalogHandler.CreateQuiz)
				staff.PUT("/quizzes/:slug", catalogHandler.UpdateQuiz)
				staff.DELETE("/quizzes/:slug", catalogHandler.DeleteQuiz)
				staff.POST("/categories", catalogHandler.CreateCategory)

				staff.GET("/marking", sittingHandler.ListMarking)
				staff.GET("/marking/:id", sittingHandler.MarkingDetail)
				staff.POST("/marking/:id/toggle", sittingHandler.ToggleIncorrect)

				staff.POST("/uploads/csv", uploadHandler.UploadCSV)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
