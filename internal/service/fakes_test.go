package service

import (
	"context"
	"sort"
	"time"

	"github.com/voqk/btm-server/internal/domain"
	"github.com/voqk/btm-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes backing the service tests. They honor the same
// contracts as the Mongo implementations: ownership filters on reads,
// repository.ErrNotFound on misses, and the documented sort orders.

// passthroughTxRunner runs fn directly; the fakes mutate shared maps, so there
// is nothing to commit or roll back.
type passthroughTxRunner struct{}

func (passthroughTxRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- user repository fake ---

type memUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

// --- exercise repository fake ---

type memExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newMemExerciseRepo() *memExerciseRepo {
	return &memExerciseRepo{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *memExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = time.Now()
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *memExerciseRepo) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := e
	return &out, nil
}

func (r *memExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, id := range ids {
		if e, ok := r.exercises[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memExerciseRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memExerciseRepo) NameExists(ctx context.Context, userID primitive.ObjectID, name string, excludeID primitive.ObjectID) (bool, error) {
	for _, e := range r.exercises {
		if e.UserID == userID && e.Name == name && e.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	existing, ok := r.exercises[exercise.ID]
	if !ok || existing.UserID != exercise.UserID {
		return repository.ErrNotFound
	}
	existing.Name = exercise.Name
	existing.ExerciseType = exercise.ExerciseType
	r.exercises[exercise.ID] = existing
	return nil
}

func (r *memExerciseRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	e, ok := r.exercises[id]
	if !ok || e.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- workout plan repository fake ---

type memPlanRepo struct {
	plans         map[primitive.ObjectID]domain.WorkoutPlan
	planExercises map[primitive.ObjectID]domain.PlanExercise
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{
		plans:         make(map[primitive.ObjectID]domain.WorkoutPlan),
		planExercises: make(map[primitive.ObjectID]domain.PlanExercise),
	}
}

func (r *memPlanRepo) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *memPlanRepo) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	p, ok := r.plans[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *memPlanRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	var out []domain.WorkoutPlan
	for _, p := range r.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memPlanRepo) NameExists(ctx context.Context, userID primitive.ObjectID, name string, excludeID primitive.ObjectID) (bool, error) {
	for _, p := range r.plans {
		if p.UserID == userID && p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPlanRepo) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name = name
	p.UpdatedAt = time.Now()
	r.plans[id] = p
	return nil
}

func (r *memPlanRepo) Touch(ctx context.Context, id primitive.ObjectID) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.plans[id] = p
	return nil
}

func (r *memPlanRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *memPlanRepo) AddPlanExercise(ctx context.Context, pe *domain.PlanExercise) (primitive.ObjectID, error) {
	pe.ID = primitive.NewObjectID()
	r.planExercises[pe.ID] = *pe
	return pe.ID, nil
}

func (r *memPlanRepo) GetPlanExercise(ctx context.Context, id primitive.ObjectID) (*domain.PlanExercise, error) {
	pe, ok := r.planExercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := pe
	return &out, nil
}

func (r *memPlanRepo) GetPlanExercises(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanExercise, error) {
	var out []domain.PlanExercise
	for _, pe := range r.planExercises {
		if pe.WorkoutPlanID == planID {
			out = append(out, pe)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *memPlanRepo) MaxOrderIndex(ctx context.Context, planID primitive.ObjectID) (int, error) {
	max := -1
	for _, pe := range r.planExercises {
		if pe.WorkoutPlanID == planID && pe.OrderIndex > max {
			max = pe.OrderIndex
		}
	}
	return max, nil
}

func (r *memPlanRepo) UpdatePlanExercise(ctx context.Context, id primitive.ObjectID, sets, targetReps int) error {
	pe, ok := r.planExercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	pe.Sets = sets
	pe.TargetReps = targetReps
	r.planExercises[id] = pe
	return nil
}

func (r *memPlanRepo) SetOrderIndex(ctx context.Context, id primitive.ObjectID, orderIndex int) error {
	pe, ok := r.planExercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	pe.OrderIndex = orderIndex
	r.planExercises[id] = pe
	return nil
}

func (r *memPlanRepo) RemovePlanExercise(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.planExercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.planExercises, id)
	return nil
}

func (r *memPlanRepo) RemovePlanExercisesByPlan(ctx context.Context, planID primitive.ObjectID) error {
	for id, pe := range r.planExercises {
		if pe.WorkoutPlanID == planID {
			delete(r.planExercises, id)
		}
	}
	return nil
}

func (r *memPlanRepo) ExerciseInAnyPlan(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	for _, pe := range r.planExercises {
		if pe.ExerciseID == exerciseID {
			return true, nil
		}
	}
	return false, nil
}

// --- workout session repository fake ---

// memSessionEntry carries an insertion sequence so GetByUserID and
// GetSetsBySession can reproduce the Mongo sort orders even when timestamps
// collide within a test run.
type memSessionEntry struct {
	session domain.WorkoutSession
	seq     int
}

type memSetEntry struct {
	set domain.ExerciseSet
	seq int
}

type memSessionRepo struct {
	sessions map[primitive.ObjectID]memSessionEntry
	sets     map[primitive.ObjectID]memSetEntry
	nextSeq  int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: make(map[primitive.ObjectID]memSessionEntry),
		sets:     make(map[primitive.ObjectID]memSetEntry),
	}
}

func (r *memSessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	session.Active = true
	session.StartedAt = time.Now()
	r.nextSeq++
	r.sessions[session.ID] = memSessionEntry{session: *session, seq: r.nextSeq}
	return session.ID, nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	entry, ok := r.sessions[id]
	if !ok || entry.session.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := entry.session
	return &out, nil
}

func (r *memSessionRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) {
	var entries []memSessionEntry
	for _, e := range r.sessions {
		if e.session.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.WorkoutSession, len(entries))
	for i, e := range entries {
		out[i] = e.session
	}
	return out, nil
}

func (r *memSessionRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	for _, e := range r.sessions {
		if e.session.UserID == userID && e.session.CompletedAt == nil {
			out := e.session
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) HasActiveSession(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	for _, e := range r.sessions {
		if e.session.UserID == userID && e.session.CompletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) SetBodyWeightAndTonnage(ctx context.Context, id primitive.ObjectID, bodyWeightLbs *float64, tonnageLbs float64) error {
	entry, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	entry.session.BodyWeightLbs = bodyWeightLbs
	entry.session.TonnageLbs = tonnageLbs
	r.sessions[id] = entry
	return nil
}

func (r *memSessionRepo) SetTonnage(ctx context.Context, id primitive.ObjectID, tonnageLbs float64) error {
	entry, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	entry.session.TonnageLbs = tonnageLbs
	r.sessions[id] = entry
	return nil
}

func (r *memSessionRepo) SetCompleted(ctx context.Context, id primitive.ObjectID) error {
	entry, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	entry.session.CompletedAt = &now
	entry.session.Active = false
	r.sessions[id] = entry
	return nil
}

func (r *memSessionRepo) ClearPlanRefs(ctx context.Context, planID primitive.ObjectID) error {
	for id, entry := range r.sessions {
		if entry.session.WorkoutPlanID != nil && *entry.session.WorkoutPlanID == planID {
			entry.session.WorkoutPlanID = nil
			r.sessions[id] = entry
		}
	}
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) AddSet(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	set.ID = primitive.NewObjectID()
	set.RecordedAt = time.Now()
	r.nextSeq++
	r.sets[set.ID] = memSetEntry{set: *set, seq: r.nextSeq}
	return set.ID, nil
}

func (r *memSessionRepo) GetSet(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error) {
	entry, ok := r.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := entry.set
	return &out, nil
}

func (r *memSessionRepo) GetSetsBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	var entries []memSetEntry
	for _, e := range r.sets {
		if e.set.WorkoutSessionID == sessionID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]domain.ExerciseSet, len(entries))
	for i, e := range entries {
		out[i] = e.set
	}
	return out, nil
}

func (r *memSessionRepo) UpdateSet(ctx context.Context, id primitive.ObjectID, reps int, weightLbs float64) error {
	entry, ok := r.sets[id]
	if !ok {
		return repository.ErrNotFound
	}
	entry.set.Reps = reps
	entry.set.WeightLbs = weightLbs
	r.sets[id] = entry
	return nil
}

func (r *memSessionRepo) RemoveSet(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.sets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sets, id)
	return nil
}

func (r *memSessionRepo) RemoveSetsBySession(ctx context.Context, sessionID primitive.ObjectID) error {
	for id, entry := range r.sets {
		if entry.set.WorkoutSessionID == sessionID {
			delete(r.sets, id)
		}
	}
	return nil
}

func (r *memSessionRepo) DecrementSetNumbersAbove(ctx context.Context, sessionID, exerciseID primitive.ObjectID, setNumber int) error {
	for id, entry := range r.sets {
		if entry.set.WorkoutSessionID == sessionID &&
			entry.set.ExerciseID == exerciseID &&
			entry.set.SetNumber > setNumber {
			entry.set.SetNumber--
			r.sets[id] = entry
		}
	}
	return nil
}

func (r *memSessionRepo) ExerciseHasSets(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	for _, entry := range r.sets {
		if entry.set.ExerciseID == exerciseID {
			return true, nil
		}
	}
	return false, nil
}
