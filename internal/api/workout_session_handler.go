package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSessionHandler holds the session service dependency.
type WorkoutSessionHandler struct {
	sessionService service.WorkoutSessionService
}

// NewWorkoutSessionHandler creates a new WorkoutSessionHandler.
func NewWorkoutSessionHandler(sessionService service.WorkoutSessionService) *WorkoutSessionHandler {
	return &WorkoutSessionHandler{sessionService: sessionService}
}

// --- DTOs ---

type StartSessionRequest struct {
	PlanID        string   `json:"planId" binding:"required"`
	BodyWeightLbs *float64 `json:"bodyWeightLbs"`
}

type BodyWeightRequest struct {
	BodyWeightLbs *float64 `json:"bodyWeightLbs"`
}

type LogSetRequest struct {
	ExerciseID string  `json:"exerciseId" binding:"required"`
	Reps       int     `json:"reps" binding:"required,min=1"`
	WeightLbs  float64 `json:"weightLbs"` // negative allowed for assisted exercises
}

type UpdateSetRequest struct {
	Reps      int     `json:"reps" binding:"required,min=1"`
	WeightLbs float64 `json:"weightLbs"`
}

type ExerciseSetResponse struct {
	ID           string    `json:"id"`
	ExerciseID   string    `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	ExerciseType string    `json:"exerciseType"`
	SetNumber    int       `json:"setNumber"`
	Reps         int       `json:"reps"`
	WeightLbs    float64   `json:"weightLbs"`
	RecordedAt   time.Time `json:"recordedAt"`
}

type WorkoutSessionResponse struct {
	ID              string                `json:"id"`
	WorkoutPlanID   *string               `json:"workoutPlanId,omitempty"`
	WorkoutPlanName string                `json:"workoutPlanName"`
	BodyWeightLbs   *float64              `json:"bodyWeightLbs,omitempty"`
	StartedAt       time.Time             `json:"startedAt"`
	CompletedAt     *time.Time            `json:"completedAt,omitempty"`
	TonnageLbs      float64               `json:"tonnageLbs"`
	Sets            []ExerciseSetResponse `json:"sets"`
	Plan            *WorkoutPlanResponse  `json:"plan,omitempty"`
}

// MapExerciseSetToResponse converts a domain.ExerciseSet to its DTO.
func MapExerciseSetToResponse(set *domain.ExerciseSet) ExerciseSetResponse {
	if set == nil {
		return ExerciseSetResponse{}
	}
	return ExerciseSetResponse{
		ID:           set.ID.Hex(),
		ExerciseID:   set.ExerciseID.Hex(),
		ExerciseName: set.ExerciseName,
		ExerciseType: string(set.ExerciseType),
		SetNumber:    set.SetNumber,
		Reps:         set.Reps,
		WeightLbs:    set.WeightLbs,
		RecordedAt:   set.RecordedAt,
	}
}

// MapWorkoutSessionToResponse converts a domain.WorkoutSession to its DTO.
func MapWorkoutSessionToResponse(session *domain.WorkoutSession) WorkoutSessionResponse {
	if session == nil {
		return WorkoutSessionResponse{}
	}
	sets := make([]ExerciseSetResponse, len(session.Sets))
	for i := range session.Sets {
		sets[i] = MapExerciseSetToResponse(&session.Sets[i])
	}
	resp := WorkoutSessionResponse{
		ID:              session.ID.Hex(),
		WorkoutPlanName: session.WorkoutPlanName,
		BodyWeightLbs:   session.BodyWeightLbs,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
		TonnageLbs:      session.TonnageLbs,
		Sets:            sets,
	}
	if session.WorkoutPlanID != nil {
		planID := session.WorkoutPlanID.Hex()
		resp.WorkoutPlanID = &planID
	}
	if session.Plan != nil {
		plan := MapWorkoutPlanToResponse(session.Plan)
		resp.Plan = &plan
	}
	return resp
}

// --- Handler Methods ---

// ListSessions godoc
// @Summary List the user's session history
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum sessions to return (default 50)"
// @Success 200 {array} WorkoutSessionResponse "Sessions, newest first"
// @Router /sessions [get]
func (h *WorkoutSessionHandler) ListSessions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	sessions, err := h.sessionService.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve sessions.")
		return
	}

	responses := make([]WorkoutSessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapWorkoutSessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, responses)
}

// GetActiveSession godoc
// @Summary Get the user's active session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} WorkoutSessionResponse
// @Failure 404 {object} gin.H "No active session"
// @Router /sessions/active [get]
func (h *WorkoutSessionHandler) GetActiveSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.sessionService.GetActive(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active session.")
		return
	}
	if session == nil {
		abortWithError(c, http.StatusNotFound, "No active session.")
		return
	}

	c.JSON(http.StatusOK, MapWorkoutSessionToResponse(session))
}

// GetSession godoc
// @Summary Get one session with its sets and plan snapshot
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} WorkoutSessionResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /sessions/{id} [get]
func (h *WorkoutSessionHandler) GetSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	sessionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID, userID)
	if err != nil {
		writeSessionError(c, err, "Failed to retrieve session.")
		return
	}

	c.JSON(http.StatusOK, MapWorkoutSessionToResponse(session))
}

// StartSession godoc
// @Summary Start a session from a plan
// @Description Fails while another session is active. The plan's name is captured onto the session at this instant.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body StartSessionRequest true "Plan and optional body weight"
// @Success 201 {object} WorkoutSessionResponse "Session started"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 409 {object} gin.H "A session is already active"
// @Router /sessions [post]
func (h *WorkoutSessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format.")
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), userID, planID, req.BodyWeightLbs)
	if err != nil {
		writeSessionError(c, err, "Failed to start session.")
		return
	}

	c.JSON(http.StatusCreated, MapWorkoutSessionToResponse(session))
}

// UpdateBodyWeight godoc
// @Summary Update the session's body weight
// @Description Recomputes tonnage; the change affects every bodyweight/assisted set already logged.
// @Tags Sessions
// @Accept json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param bodyWeight body BodyWeightRequest true "New body weight (null clears it)"
// @Success 204 "Updated"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Router /sessions/{id}/body-weight [put]
func (h *WorkoutSessionHandler) UpdateBodyWeight(c *gin.Context) {
	var req BodyWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	sessionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.UpdateBodyWeight(c.Request.Context(), sessionID, userID, req.BodyWeightLbs); err != nil {
		writeSessionError(c, err, "Failed to update body weight.")
		return
	}

	c.Status(http.StatusNoContent)
}

// LogSet godoc
// @Summary Log a set in the session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param set body LogSetRequest true "Set details"
// @Success 201 {object} ExerciseSetResponse "Set logged"
// @Failure 404 {object} gin.H "Session or exercise not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Router /sessions/{id}/sets [post]
func (h *WorkoutSessionHandler) LogSet(c *gin.Context) {
	var req LogSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	sessionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format.")
		return
	}

	set, err := h.sessionService.LogSet(c.Request.Context(), sessionID, userID, exerciseID, req.Reps, req.WeightLbs)
	if err != nil {
		writeSessionError(c, err, "Failed to log set.")
		return
	}

	c.JSON(http.StatusCreated, MapExerciseSetToResponse(set))
}

// UpdateSet godoc
// @Summary Update a logged set's reps and weight
// @Tags Sessions
// @Accept json
// @Security BearerAuth
// @Param id path string true "Set ID"
// @Param set body UpdateSetRequest true "New reps and weight"
// @Success 204 "Updated"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Router /sets/{id} [put]
func (h *WorkoutSessionHandler) UpdateSet(c *gin.Context) {
	var req UpdateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	setID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.UpdateSet(c.Request.Context(), setID, userID, req.Reps, req.WeightLbs); err != nil {
		writeSessionError(c, err, "Failed to update set.")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteSet godoc
// @Summary Delete a logged set
// @Description Later sets of the same exercise are renumbered to keep set numbers contiguous.
// @Tags Sessions
// @Security BearerAuth
// @Param id path string true "Set ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Router /sets/{id} [delete]
func (h *WorkoutSessionHandler) DeleteSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	setID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.DeleteSet(c.Request.Context(), setID, userID); err != nil {
		writeSessionError(c, err, "Failed to delete set.")
		return
	}

	c.Status(http.StatusNoContent)
}

// CompleteSession godoc
// @Summary Complete the session
// @Tags Sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204 "Completed"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Already completed"
// @Router /sessions/{id}/complete [post]
func (h *WorkoutSessionHandler) CompleteSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	sessionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Complete(c.Request.Context(), sessionID, userID); err != nil {
		writeSessionError(c, err, "Failed to complete session.")
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelSession godoc
// @Summary Cancel the active session
// @Description Hard-deletes the session and its sets; nothing is kept.
// @Tags Sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204 "Cancelled"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Session already completed"
// @Router /sessions/{id}/cancel [post]
func (h *WorkoutSessionHandler) CancelSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	sessionID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Cancel(c.Request.Context(), sessionID, userID); err != nil {
		writeSessionError(c, err, "Failed to cancel session.")
		return
	}

	c.Status(http.StatusNoContent)
}

// writeSessionError maps session service failures onto HTTP statuses.
func writeSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionAlreadyActive),
		errors.Is(err, service.ErrSessionCompleted),
		errors.Is(err, service.ErrSessionAlreadyCompleted):
		abortWithError(c, http.StatusConflict, err.Error())
	case isConflict(err):
		abortWithError(c, http.StatusConflict, "The change conflicts with a concurrent update.")
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
