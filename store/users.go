package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/voltasol/osboard/domain"
	"go.uber.org/zap"
)

// CreateUser validates and creates a user. The user is inserted
// optimistically before the POST; a network failure keeps the local record.
// When the input carries plant associations, the user is merged into each
// plant's existing assignment lists and the coordinator reconciles the
// bidirectional links.
func (s *Store) CreateUser(ctx context.Context, in domain.UserInput) (Result[domain.User], error) {
	if err := s.valid.Struct(in); err != nil {
		return Result[domain.User]{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	username := domain.NormalizeUsername(in.Username)
	if !domain.ValidUsername(username) {
		return Result[domain.User]{}, fmt.Errorf("%w: username must be 3-32 chars of [a-z0-9._-]", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if err := s.checkUserReferences(in.Role, in.SupervisorID, in.PlantIDs); err != nil {
		s.mu.Unlock()
		return Result[domain.User]{}, err
	}
	for i := range s.users {
		if domain.NormalizeUsername(s.users[i].Username) == username {
			s.mu.Unlock()
			return Result[domain.User]{}, domain.ErrDuplicateUsername
		}
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     username,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		CanLogin:     in.CanLogin,
		Password:     in.Password,
		PlantIDs:     append([]string{}, in.PlantIDs...),
		SupervisorID: in.SupervisorID,
	}
	optimisticID := user.ID
	s.users = append(s.users, user)
	s.saveUsers()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.CreateUser(ctx, user)
	if err != nil {
		s.logger.Warn("create user not confirmed by server, keeping local state",
			zap.String("username", username),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfUser(s.users, optimisticID); idx >= 0 {
			s.users[idx] = saved
			s.saveUsers()
		}
		s.mu.Unlock()
		user = saved
	}
	s.metrics.ObserveMutation("user", string(outcome))

	if len(user.PlantIDs) > 0 {
		s.linkNewUser(ctx, user)
	}

	return Result[domain.User]{Applied: outcome, Value: user.Sanitized()}, nil
}

// UpdateUser validates and saves user changes. An empty password keeps the
// stored one; the password is write-only either way.
func (s *Store) UpdateUser(ctx context.Context, user domain.User) (Result[domain.User], error) {
	username := domain.NormalizeUsername(user.Username)
	if user.Name == "" || !domain.ValidUsername(username) || !user.Role.Valid() {
		return Result[domain.User]{}, fmt.Errorf("%w: name, username and role are required", domain.ErrInvalidInput)
	}
	user.Username = username

	s.mu.Lock()
	idx := indexOfUser(s.users, user.ID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[domain.User]{}, domain.ErrUserNotFound
	}
	for i := range s.users {
		if s.users[i].ID != user.ID && domain.NormalizeUsername(s.users[i].Username) == username {
			s.mu.Unlock()
			return Result[domain.User]{}, domain.ErrDuplicateUsername
		}
	}
	if err := s.checkUserReferences(user.Role, user.SupervisorID, user.PlantIDs); err != nil {
		s.mu.Unlock()
		return Result[domain.User]{}, err
	}
	if user.Password == "" {
		user.Password = s.users[idx].Password
	}
	s.users[idx] = user
	s.saveUsers()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.UpdateUser(ctx, user)
	if err != nil {
		s.logger.Warn("update user not confirmed by server, keeping local state",
			zap.String("user_id", user.ID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		s.mu.Lock()
		if idx := indexOfUser(s.users, saved.ID); idx >= 0 {
			s.users[idx] = saved
			s.saveUsers()
		}
		s.mu.Unlock()
		user = saved
	}
	s.metrics.ObserveMutation("user", string(outcome))

	return Result[domain.User]{Applied: outcome, Value: user.Sanitized()}, nil
}

// DeleteUser removes a user. The id is also scrubbed from every plant's
// assignment lists so the bidirectional link invariant holds locally; the
// server is expected to scrub its own side.
func (s *Store) DeleteUser(ctx context.Context, id string) (Result[string], error) {
	s.mu.Lock()
	idx := indexOfUser(s.users, id)
	if idx < 0 {
		s.mu.Unlock()
		return Result[string]{}, domain.ErrUserNotFound
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	for i := range s.plants {
		a := &s.plants[i].Assignments
		if a.CoordinatorID != nil && *a.CoordinatorID == id {
			a.CoordinatorID = nil
		}
		a.SupervisorIDs = removeString(a.SupervisorIDs, id)
		a.TechnicianIDs = removeString(a.TechnicianIDs, id)
		a.AssistantIDs = removeString(a.AssistantIDs, id)
	}
	s.saveUsers()
	s.savePlants()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	if err := s.gw.DeleteUser(ctx, id); err != nil {
		s.logger.Warn("delete user not confirmed by server, keeping local state",
			zap.String("user_id", id),
			zap.Error(err))
		outcome = AppliedLocalOnly
	}
	s.metrics.ObserveMutation("user", string(outcome))

	return Result[string]{Applied: outcome, Value: id}, nil
}

// checkUserReferences validates the cross-entity references of a user write.
// Caller holds the lock.
func (s *Store) checkUserReferences(role domain.Role, supervisorID string, plantIDs []string) error {
	if supervisorID != "" {
		if role != domain.RoleTechnician {
			return fmt.Errorf("%w: only technicians report to a supervisor", domain.ErrInvalidInput)
		}
		idx := indexOfUser(s.users, supervisorID)
		if idx < 0 {
			return fmt.Errorf("%w: supervisor %s", domain.ErrUserNotFound, supervisorID)
		}
		if s.users[idx].Role != domain.RoleSupervisor {
			return fmt.Errorf("%w: %s is not a supervisor", domain.ErrInvalidInput, supervisorID)
		}
	}
	for _, plantID := range plantIDs {
		if indexOfPlant(s.plants, plantID) < 0 {
			return fmt.Errorf("%w: %s", domain.ErrPlantNotFound, plantID)
		}
	}
	return nil
}

// linkNewUser merges a freshly created user into the assignment lists of
// every plant the user was associated with, then reconciles. Existing
// assignees are preserved: lists are fetched (or taken from the local
// projection when the fetch fails) before being rewritten.
func (s *Store) linkNewUser(ctx context.Context, user domain.User) {
	for _, plantID := range user.PlantIDs {
		a := s.assignmentsForPlant(ctx, plantID)
		merged, ok := mergeUserIntoAssignments(a, user)
		if !ok {
			// Admins and operators have no assignment slot on a plant.
			continue
		}
		if err := s.Reconcile(ctx, plantID, merged); err != nil {
			s.logger.Warn("failed to reconcile plant links for new user",
				zap.String("user_id", user.ID),
				zap.String("plant_id", plantID),
				zap.Error(err))
		}
	}
}

// assignmentsForPlant returns the plant's current assignment lists, asking
// the server first and falling back to the local projection.
func (s *Store) assignmentsForPlant(ctx context.Context, plantID string) domain.Assignments {
	if a, err := s.gw.GetAssignments(ctx, plantID); err == nil {
		return a
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := indexOfPlant(s.plants, plantID); idx >= 0 {
		return copyAssignments(s.plants[idx].Assignments)
	}
	return domain.Assignments{}
}

// mergeUserIntoAssignments adds the user to the list matching their role.
// The second return is false for roles without an assignment slot.
func mergeUserIntoAssignments(a domain.Assignments, user domain.User) (domain.Assignments, bool) {
	a = a.Normalized()
	switch user.Role {
	case domain.RoleCoordinator:
		id := user.ID
		a.CoordinatorID = &id
		return a, true
	case domain.RoleSupervisor:
		a.SupervisorIDs = appendUnique(a.SupervisorIDs, user.ID)
		return a, true
	case domain.RoleTechnician:
		a.TechnicianIDs = appendUnique(a.TechnicianIDs, user.ID)
		return a, true
	case domain.RoleAssistant:
		a.AssistantIDs = appendUnique(a.AssistantIDs, user.ID)
		return a, true
	}
	return a, false
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

func removeString(list []string, id string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
