package api

import (
	"net/http"

	"github.com/voqk/btm-server/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	planService service.WorkoutPlanService,
	sessionService service.WorkoutSessionService,
) {

	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	planHandler := NewWorkoutPlanHandler(planService)
	sessionHandler := NewWorkoutSessionHandler(sessionService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
		}

		// --- Workout Plans ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("/:id", planHandler.GetPlan)
			planGroup.PUT("/:id", planHandler.RenamePlan)
			planGroup.DELETE("/:id", planHandler.DeletePlan)
			// POST /api/v1/plans/{id}/exercises appends at the end of the plan
			planGroup.POST("/:id/exercises", planHandler.AddExerciseToPlan)
			planGroup.PUT("/:id/reorder", planHandler.ReorderPlan)
		}

		// Plan entries are addressed by their own id once created.
		planExerciseGroup := protected.Group("/plan-exercises")
		{
			planExerciseGroup.PUT("/:id", planHandler.UpdatePlanExercise)
			planExerciseGroup.DELETE("/:id", planHandler.RemovePlanExercise)
		}

		// --- Workout Sessions ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.GET("", sessionHandler.ListSessions)
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.GET("/active", sessionHandler.GetActiveSession)
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.PUT("/:id/body-weight", sessionHandler.UpdateBodyWeight)
			sessionGroup.POST("/:id/sets", sessionHandler.LogSet)
			sessionGroup.POST("/:id/complete", sessionHandler.CompleteSession)
			sessionGroup.POST("/:id/cancel", sessionHandler.CancelSession)
		}

		setGroup := protected.Group("/sets")
		{
			setGroup.PUT("/:id", sessionHandler.UpdateSet)
			setGroup.DELETE("/:id", sessionHandler.DeleteSet)
		}
	}
}
