package handlers

import (
	"net/http"
	"time"

	"studyapp/internal/config"
	"studyapp/internal/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP API around the study pipeline handlers.
func NewRouter(
	cfg *config.Config,
	study *StudyHandler,
	grading *GradingHandler,
	library *LibraryHandler,
	logger *observability.Logger,
) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "studyapp"})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName))

	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		router.Use(cors.New(corsConfig))
	}

	// Automatic trailing-slash redirects get in the way of an API
	router.RedirectTrailingSlash = false

	v1 := router.Group("/v1")
	{
		books := v1.Group("/books")
		{
			books.POST("", study.UploadBook)
			books.GET("", study.ListBooks)
			books.GET("/:id", study.GetBook)
			books.DELETE("/:id", study.DeleteBook)
			books.POST("/:id/chapters/:chapterID/lessons", study.AnalyzeChapterLessons)
		}

		lessons := v1.Group("/lessons")
		{
			lessons.POST("/content", study.GenerateLessonContent)
			lessons.POST("/questions/initial", study.GenerateInitialQuestions)
			lessons.POST("/questions/more", study.GenerateMoreQuestions)
		}

		v1.POST("/grade", grading.GradeAnswers)
		v1.POST("/retry/begin", grading.BeginRetry)
		v1.POST("/retry/restore", grading.RestoreRetry)
		v1.POST("/corrections", grading.RequestCorrections)
		v1.POST("/explanations/deeper", grading.DeeperExplanation)

		summaries := v1.Group("/summaries")
		{
			summaries.POST("", library.SummarizeChapter)
			summaries.GET("", library.ListSummaries)
			summaries.DELETE("/:id", library.DeleteSummary)
		}

		v1.POST("/proofread", library.ProofreadPage)
		v1.GET("/library/categories", library.CategorizeLibrary)

		tasks := v1.Group("/tasks")
		{
			tasks.POST("", library.CreateTask)
			tasks.GET("", library.ListTasks)
			tasks.PUT("/:id", library.UpdateTask)
			tasks.DELETE("/:id", library.DeleteTask)
		}

		taskCategories := v1.Group("/task-categories")
		{
			taskCategories.POST("", library.CreateTaskCategory)
			taskCategories.GET("", library.ListTaskCategories)
			taskCategories.DELETE("/:id", library.DeleteTaskCategory)
		}

		session := v1.Group("/session/active")
		{
			session.GET("", library.GetActiveBook)
			session.PUT("", library.SetActiveBook)
			session.DELETE("", library.ClearActiveBook)
		}
	}

	return router
}
