package service

import (
	"context"
	"errors"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrSetNotFound             = errors.New("set not found")
	ErrSessionAlreadyActive    = errors.New("you already have an active workout session; complete or cancel it first")
	ErrSessionCompleted        = errors.New("cannot modify a completed session")
	ErrSessionAlreadyCompleted = errors.New("session is already completed")
)

// defaultSessionListLimit caps session history queries when the caller does
// not supply a limit.
const defaultSessionListLimit = 50

// WorkoutSessionService manages the single active session per user, set
// logging with per-exercise renumbering, and tonnage recomputation.
type WorkoutSessionService interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error)
	Get(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	// GetActive returns the user's active session, or nil when there is none.
	GetActive(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	Start(ctx context.Context, userID, planID primitive.ObjectID, bodyWeightLbs *float64) (*domain.WorkoutSession, error)
	UpdateBodyWeight(ctx context.Context, sessionID, userID primitive.ObjectID, bodyWeightLbs *float64) error
	LogSet(ctx context.Context, sessionID, userID, exerciseID primitive.ObjectID, reps int, weightLbs float64) (*domain.ExerciseSet, error)
	UpdateSet(ctx context.Context, setID, userID primitive.ObjectID, reps int, weightLbs float64) error
	DeleteSet(ctx context.Context, setID, userID primitive.ObjectID) error
	Complete(ctx context.Context, sessionID, userID primitive.ObjectID) error
	Cancel(ctx context.Context, sessionID, userID primitive.ObjectID) error
}

// workoutSessionService implements the WorkoutSessionService interface.
type workoutSessionService struct {
	sessionRepo  repository.WorkoutSessionRepository
	planRepo     repository.WorkoutPlanRepository
	exerciseRepo repository.ExerciseRepository
	tx           repository.TxRunner
}

// NewWorkoutSessionService creates a new instance of workoutSessionService.
func NewWorkoutSessionService(
	sessionRepo repository.WorkoutSessionRepository,
	planRepo repository.WorkoutPlanRepository,
	exerciseRepo repository.ExerciseRepository,
	tx repository.TxRunner,
) WorkoutSessionService {
	return &workoutSessionService{
		sessionRepo:  sessionRepo,
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		tx:           tx,
	}
}

// ListForUser returns the user's session history, newest first, with sets
// attached. A non-positive limit falls back to the default of 50.
func (s *workoutSessionService) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}

	sessions, err := s.sessionRepo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		sets, err := s.sessionRepo.GetSetsBySession(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Sets = sets
	}
	return sessions, nil
}

// loadSessionDetail attaches sets (recordedAt ascending) and, when the plan
// back-reference survives, the plan with its exercises ordered by orderIndex.
func (s *workoutSessionService) loadSessionDetail(ctx context.Context, session *domain.WorkoutSession) error {
	sets, err := s.sessionRepo.GetSetsBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	session.Sets = sets

	if session.WorkoutPlanID == nil {
		return nil
	}

	plan, err := s.planRepo.GetByID(ctx, *session.WorkoutPlanID, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	pes, err := s.planRepo.GetPlanExercises(ctx, plan.ID)
	if err != nil {
		return err
	}

	if len(pes) > 0 {
		ids := make([]primitive.ObjectID, 0, len(pes))
		for _, pe := range pes {
			ids = append(ids, pe.ExerciseID)
		}
		exercises, err := s.exerciseRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
		for i := range exercises {
			byID[exercises[i].ID] = &exercises[i]
		}
		for i := range pes {
			pes[i].Exercise = byID[pes[i].ExerciseID]
		}
	}
	plan.PlanExercises = pes
	session.Plan = plan
	return nil
}

// Get returns a single session with full detail.
func (s *workoutSessionService) Get(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := s.loadSessionDetail(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetActive returns the user's active session with full detail, or nil when
// no session is active.
func (s *workoutSessionService) GetActive(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.loadSessionDetail(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Start opens a new session from a plan, capturing the plan's name at this
// instant. Fails while another session is active.
func (s *workoutSessionService) Start(ctx context.Context, userID, planID primitive.ObjectID, bodyWeightLbs *float64) (*domain.WorkoutSession, error) {
	active, err := s.sessionRepo.HasActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrSessionAlreadyActive
	}

	plan, err := s.planRepo.GetByID(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	session := &domain.WorkoutSession{
		UserID:          userID,
		WorkoutPlanID:   &planID,
		WorkoutPlanName: plan.Name,
		BodyWeightLbs:   bodyWeightLbs,
		TonnageLbs:      0,
	}

	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

// getActiveOwnedSession loads a session, verifying ownership and that it has
// not completed.
func (s *workoutSessionService) getActiveOwnedSession(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.IsCompleted() {
		return nil, ErrSessionCompleted
	}
	return session, nil
}

// UpdateBodyWeight sets the session's body weight and recomputes tonnage:
// the change retroactively affects every bodyweight/assisted set already
// logged in the session.
func (s *workoutSessionService) UpdateBodyWeight(ctx context.Context, sessionID, userID primitive.ObjectID, bodyWeightLbs *float64) error {
	session, err := s.getActiveOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		sets, err := s.sessionRepo.GetSetsBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		return s.sessionRepo.SetBodyWeightAndTonnage(ctx, session.ID, bodyWeightLbs, Tonnage(sets, bodyWeightLbs))
	})
}

// LogSet appends a set for an exercise. The set number is one past the count
// of the session's existing sets for that exercise, and the exercise's name
// and type are snapshotted onto the set, never resynced.
func (s *workoutSessionService) LogSet(ctx context.Context, sessionID, userID, exerciseID primitive.ObjectID, reps int, weightLbs float64) (*domain.ExerciseSet, error) {
	if reps <= 0 {
		return nil, ErrValidationFailed
	}

	session, err := s.getActiveOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	var set *domain.ExerciseSet
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		sets, err := s.sessionRepo.GetSetsBySession(ctx, session.ID)
		if err != nil {
			return err
		}

		existingForExercise := 0
		for _, existing := range sets {
			if existing.ExerciseID == exerciseID {
				existingForExercise++
			}
		}

		set = &domain.ExerciseSet{
			WorkoutSessionID: session.ID,
			ExerciseID:       exerciseID,
			ExerciseName:     exercise.Name,
			ExerciseType:     exercise.ExerciseType,
			SetNumber:        existingForExercise + 1,
			Reps:             reps,
			WeightLbs:        weightLbs,
		}

		setID, err := s.sessionRepo.AddSet(ctx, set)
		if err != nil {
			return err
		}
		set.ID = setID

		sets = append(sets, *set)
		return s.sessionRepo.SetTonnage(ctx, session.ID, Tonnage(sets, session.BodyWeightLbs))
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// getOwnedSet loads a set and its owning session, verifying ownership
// transitively. A set in another user's session is indistinguishable from a
// missing one.
func (s *workoutSessionService) getOwnedSet(ctx context.Context, setID, userID primitive.ObjectID) (*domain.ExerciseSet, *domain.WorkoutSession, error) {
	set, err := s.sessionRepo.GetSet(ctx, setID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSetNotFound
		}
		return nil, nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, set.WorkoutSessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSetNotFound
		}
		return nil, nil, err
	}
	return set, session, nil
}

// UpdateSet changes a set's reps and weight. The set number and exercise
// reference stay as logged.
func (s *workoutSessionService) UpdateSet(ctx context.Context, setID, userID primitive.ObjectID, reps int, weightLbs float64) error {
	if reps <= 0 {
		return ErrValidationFailed
	}

	set, session, err := s.getOwnedSet(ctx, setID, userID)
	if err != nil {
		return err
	}
	if session.IsCompleted() {
		return ErrSessionCompleted
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.UpdateSet(ctx, set.ID, reps, weightLbs); err != nil {
			return err
		}

		sets, err := s.sessionRepo.GetSetsBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		return s.sessionRepo.SetTonnage(ctx, session.ID, Tonnage(sets, session.BodyWeightLbs))
	})
}

// DeleteSet removes a set, then decrements the set numbers of the same
// exercise's later sets in the session so the surviving numbers stay 1..k.
func (s *workoutSessionService) DeleteSet(ctx context.Context, setID, userID primitive.ObjectID) error {
	set, session, err := s.getOwnedSet(ctx, setID, userID)
	if err != nil {
		return err
	}
	if session.IsCompleted() {
		return ErrSessionCompleted
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.RemoveSet(ctx, set.ID); err != nil {
			return err
		}
		if err := s.sessionRepo.DecrementSetNumbersAbove(ctx, session.ID, set.ExerciseID, set.SetNumber); err != nil {
			return err
		}

		sets, err := s.sessionRepo.GetSetsBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		return s.sessionRepo.SetTonnage(ctx, session.ID, Tonnage(sets, session.BodyWeightLbs))
	})
}

// Complete stamps completedAt. The session becomes immutable afterward.
func (s *workoutSessionService) Complete(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.IsCompleted() {
		return ErrSessionAlreadyCompleted
	}

	return s.sessionRepo.SetCompleted(ctx, session.ID)
}

// Cancel hard-deletes an active session and all of its sets; no persisted
// trace remains. Completed sessions cannot be cancelled.
func (s *workoutSessionService) Cancel(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	session, err := s.getActiveOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	return s.tx.Run(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.RemoveSetsBySession(ctx, session.ID); err != nil {
			return err
		}
		return s.sessionRepo.Delete(ctx, session.ID)
	})
}
