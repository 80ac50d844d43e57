package service

import (
	"context"
	"errors"
	"strings"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrExerciseNameTaken = errors.New("an exercise with this name already exists")
	ErrExerciseInPlan    = errors.New("cannot delete exercise: it is used in one or more workout plans")
	ErrExerciseLogged    = errors.New("cannot delete exercise: it has been logged in workout sessions")
	ErrValidationFailed  = errors.New("validation failed")
)

// ExerciseService manages the user-scoped exercise catalog.
type ExerciseService interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error)
	Get(ctx context.Context, exerciseID, userID primitive.ObjectID) (*domain.Exercise, error)
	Create(ctx context.Context, userID primitive.ObjectID, name string, exerciseType domain.ExerciseType) (*domain.Exercise, error)
	Update(ctx context.Context, exerciseID, userID primitive.ObjectID, name string, exerciseType domain.ExerciseType) (*domain.Exercise, error)
	Delete(ctx context.Context, exerciseID, userID primitive.ObjectID) error
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	planRepo     repository.WorkoutPlanRepository
	sessionRepo  repository.WorkoutSessionRepository
}

// NewExerciseService creates a new instance of exerciseService. The plan and
// session repositories are consulted only to gate deletion of in-use exercises.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	planRepo repository.WorkoutPlanRepository,
	sessionRepo repository.WorkoutSessionRepository,
) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		planRepo:     planRepo,
		sessionRepo:  sessionRepo,
	}
}

// List returns the user's exercises ordered by name.
func (s *exerciseService) List(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetByUserID(ctx, userID)
}

// Get returns a single exercise. An exercise owned by another user is
// indistinguishable from a nonexistent one.
func (s *exerciseService) Get(ctx context.Context, exerciseID, userID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// Create adds a new exercise, enforcing per-user name uniqueness
// (case-sensitive, compared after trimming).
func (s *exerciseService) Create(ctx context.Context, userID primitive.ObjectID, name string, exerciseType domain.ExerciseType) (*domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" || !exerciseType.IsValid() {
		return nil, ErrValidationFailed
	}

	taken, err := s.exerciseRepo.NameExists(ctx, userID, name, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrExerciseNameTaken
	}

	exercise := &domain.Exercise{
		UserID:       userID,
		Name:         name,
		ExerciseType: exerciseType,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

// Update changes an exercise's name and type in place. Historical sets keep
// the name and type they snapshotted when logged.
func (s *exerciseService) Update(ctx context.Context, exerciseID, userID primitive.ObjectID, name string, exerciseType domain.ExerciseType) (*domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" || !exerciseType.IsValid() {
		return nil, ErrValidationFailed
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	taken, err := s.exerciseRepo.NameExists(ctx, userID, name, exerciseID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrExerciseNameTaken
	}

	exercise.Name = name
	exercise.ExerciseType = exerciseType

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// Delete removes an exercise unless something still references it. The two
// in-use checks are independent so callers can tell "used in a plan" apart
// from "logged in history".
func (s *exerciseService) Delete(ctx context.Context, exerciseID, userID primitive.ObjectID) error {
	_, err := s.exerciseRepo.GetByID(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	inPlan, err := s.planRepo.ExerciseInAnyPlan(ctx, exerciseID)
	if err != nil {
		return err
	}
	if inPlan {
		return ErrExerciseInPlan
	}

	logged, err := s.sessionRepo.ExerciseHasSets(ctx, exerciseID)
	if err != nil {
		return err
	}
	if logged {
		return ErrExerciseLogged
	}

	err = s.exerciseRepo.Delete(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}
