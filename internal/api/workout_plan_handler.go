package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlanHandler holds the plan service dependency.
type WorkoutPlanHandler struct {
	planService service.WorkoutPlanService
}

// NewWorkoutPlanHandler creates a new WorkoutPlanHandler.
func NewWorkoutPlanHandler(planService service.WorkoutPlanService) *WorkoutPlanHandler {
	return &WorkoutPlanHandler{planService: planService}
}

// --- DTOs ---

type PlanNameRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddPlanExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Sets       int    `json:"sets" binding:"required,min=1"`
	TargetReps int    `json:"targetReps" binding:"required,min=1"`
}

type UpdatePlanExerciseRequest struct {
	Sets       int `json:"sets" binding:"required,min=1"`
	TargetReps int `json:"targetReps" binding:"required,min=1"`
}

type ReorderRequest struct {
	// Complete list of the plan's exercise row IDs in the desired order.
	OrderedPlanExerciseIDs []string `json:"orderedPlanExerciseIds" binding:"required"`
}

type PlanExerciseResponse struct {
	ID         string            `json:"id"`
	ExerciseID string            `json:"exerciseId"`
	OrderIndex int               `json:"orderIndex"`
	Sets       int               `json:"sets"`
	TargetReps int               `json:"targetReps"`
	Exercise   *ExerciseResponse `json:"exercise,omitempty"`
}

type WorkoutPlanResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	PlanExercises []PlanExerciseResponse `json:"planExercises"`
}

// MapPlanExerciseToResponse converts a domain.PlanExercise to its DTO.
func MapPlanExerciseToResponse(pe *domain.PlanExercise) PlanExerciseResponse {
	if pe == nil {
		return PlanExerciseResponse{}
	}
	resp := PlanExerciseResponse{
		ID:         pe.ID.Hex(),
		ExerciseID: pe.ExerciseID.Hex(),
		OrderIndex: pe.OrderIndex,
		Sets:       pe.Sets,
		TargetReps: pe.TargetReps,
	}
	if pe.Exercise != nil {
		ex := MapExerciseToResponse(pe.Exercise)
		resp.Exercise = &ex
	}
	return resp
}

// MapWorkoutPlanToResponse converts a domain.WorkoutPlan to its DTO.
func MapWorkoutPlanToResponse(plan *domain.WorkoutPlan) WorkoutPlanResponse {
	if plan == nil {
		return WorkoutPlanResponse{}
	}
	pes := make([]PlanExerciseResponse, len(plan.PlanExercises))
	for i := range plan.PlanExercises {
		pes[i] = MapPlanExerciseToResponse(&plan.PlanExercises[i])
	}
	return WorkoutPlanResponse{
		ID:            plan.ID.Hex(),
		Name:          plan.Name,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
		PlanExercises: pes,
	}
}

// --- Handler Methods ---

// ListPlans godoc
// @Summary List the user's workout plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutPlanResponse "Plans, name ascending"
// @Router /plans [get]
func (h *WorkoutPlanHandler) ListPlans(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plans, err := h.planService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}

	responses := make([]WorkoutPlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapWorkoutPlanToResponse(&plans[i])
	}
	c.JSON(http.StatusOK, responses)
}

// GetPlan godoc
// @Summary Get one workout plan with its exercises in order
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} WorkoutPlanResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id} [get]
func (h *WorkoutPlanHandler) GetPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), planID, userID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan.")
		}
		return
	}

	c.JSON(http.StatusOK, MapWorkoutPlanToResponse(plan))
}

// CreatePlan godoc
// @Summary Create a new workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanNameRequest true "Plan name"
// @Success 201 {object} WorkoutPlanResponse "Plan created"
// @Failure 409 {object} gin.H "Duplicate name"
// @Router /plans [post]
func (h *WorkoutPlanHandler) CreatePlan(c *gin.Context) {
	var req PlanNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		writePlanError(c, err, "Failed to create plan.")
		return
	}

	c.JSON(http.StatusCreated, MapWorkoutPlanToResponse(plan))
}

// RenamePlan godoc
// @Summary Rename a workout plan
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param plan body PlanNameRequest true "New name"
// @Success 204 "Renamed"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Duplicate name"
// @Router /plans/{id} [put]
func (h *WorkoutPlanHandler) RenamePlan(c *gin.Context) {
	var req PlanNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Rename(c.Request.Context(), planID, userID, req.Name); err != nil {
		writePlanError(c, err, "Failed to rename plan.")
		return
	}

	c.Status(http.StatusNoContent)
}

// AddExerciseToPlan godoc
// @Summary Append an exercise to a plan
// @Description The new entry is appended after the plan's current last position.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param exercise body AddPlanExerciseRequest true "Exercise and targets"
// @Success 201 {object} PlanExerciseResponse
// @Failure 404 {object} gin.H "Plan or exercise not found"
// @Router /plans/{id}/exercises [post]
func (h *WorkoutPlanHandler) AddExerciseToPlan(c *gin.Context) {
	var req AddPlanExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format.")
		return
	}

	pe, err := h.planService.AddExercise(c.Request.Context(), planID, userID, exerciseID, req.Sets, req.TargetReps)
	if err != nil {
		writePlanError(c, err, "Failed to add exercise to plan.")
		return
	}

	c.JSON(http.StatusCreated, MapPlanExerciseToResponse(pe))
}

// UpdatePlanExercise godoc
// @Summary Update a plan entry's target sets and reps
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param id path string true "Plan exercise ID"
// @Param targets body UpdatePlanExerciseRequest true "New targets"
// @Success 204 "Updated"
// @Failure 404 {object} gin.H "Not found"
// @Router /plan-exercises/{id} [put]
func (h *WorkoutPlanHandler) UpdatePlanExercise(c *gin.Context) {
	var req UpdatePlanExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planExerciseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.UpdateExercise(c.Request.Context(), planExerciseID, userID, req.Sets, req.TargetReps); err != nil {
		writePlanError(c, err, "Failed to update plan exercise.")
		return
	}

	c.Status(http.StatusNoContent)
}

// RemovePlanExercise godoc
// @Summary Remove an exercise from a plan
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan exercise ID"
// @Success 204 "Removed"
// @Failure 404 {object} gin.H "Not found"
// @Router /plan-exercises/{id} [delete]
func (h *WorkoutPlanHandler) RemovePlanExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planExerciseID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.RemoveExercise(c.Request.Context(), planExerciseID, userID); err != nil {
		writePlanError(c, err, "Failed to remove plan exercise.")
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderPlan godoc
// @Summary Reorder a plan's exercises
// @Description Assigns each listed entry its position in the supplied sequence. Supply every entry of the plan; unlisted entries keep their old position.
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param order body ReorderRequest true "Ordered plan exercise IDs"
// @Success 204 "Reordered"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id}/reorder [put]
func (h *WorkoutPlanHandler) ReorderPlan(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	orderedIDs := make([]primitive.ObjectID, 0, len(req.OrderedPlanExerciseIDs))
	for _, idStr := range req.OrderedPlanExerciseIDs {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid plan exercise ID format in order list.")
			return
		}
		orderedIDs = append(orderedIDs, id)
	}

	if err := h.planService.Reorder(c.Request.Context(), planID, userID, orderedIDs); err != nil {
		writePlanError(c, err, "Failed to reorder plan.")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeletePlan godoc
// @Summary Delete a workout plan
// @Description Sessions started from the plan keep their captured plan name; only their back-reference is cleared.
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Not found"
// @Router /plans/{id} [delete]
func (h *WorkoutPlanHandler) DeletePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	planID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), planID, userID); err != nil {
		writePlanError(c, err, "Failed to delete plan.")
		return
	}

	c.Status(http.StatusNoContent)
}

// writePlanError maps plan service failures onto HTTP statuses.
func writePlanError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrPlanExerciseNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanNameTaken):
		abortWithError(c, http.StatusConflict, err.Error())
	case isConflict(err):
		abortWithError(c, http.StatusConflict, "The change conflicts with a concurrent update.")
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
