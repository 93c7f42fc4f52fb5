package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/voltasol/osboard/domain"
	"go.uber.org/zap"
)

// CreatePlant validates and creates a plant. Sub-plant ids are assigned
// sequentially starting at 1 and the list is fixed afterwards. When
// assignment lists are supplied they are reconciled right after the create.
func (s *Store) CreatePlant(ctx context.Context, in domain.PlantInput, assignments *domain.Assignments) (Result[domain.Plant], error) {
	if err := s.valid.Struct(in); err != nil {
		return Result[domain.Plant]{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := checkAssets(in.Assets, domain.DefaultPlantAssets); err != nil {
		return Result[domain.Plant]{}, err
	}

	subPlants := make([]domain.SubPlant, len(in.SubPlants))
	for i, sp := range in.SubPlants {
		subPlants[i] = domain.SubPlant{ID: i + 1, InverterCount: sp.InverterCount}
	}

	plant := domain.Plant{
		ID:           uuid.NewString(),
		Client:       in.Client,
		Name:         in.Name,
		SubPlants:    subPlants,
		StringCount:  in.StringCount,
		TrackerCount: in.TrackerCount,
		Assets:       append([]string{}, in.Assets...),
		Assignments:  domain.Assignments{}.Normalized(),
	}
	optimisticID := plant.ID

	s.mu.Lock()
	s.plants = append(s.plants, plant)
	s.savePlants()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.CreatePlant(ctx, plant)
	if err != nil {
		s.logger.Warn("create plant not confirmed by server, keeping local state",
			zap.String("plant", plant.Name),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		saved.Assignments = saved.Assignments.Normalized()
		s.mu.Lock()
		if idx := indexOfPlant(s.plants, optimisticID); idx >= 0 {
			s.plants[idx] = saved
			s.savePlants()
		}
		s.mu.Unlock()
		plant = saved
	}
	s.metrics.ObserveMutation("plant", string(outcome))

	if assignments != nil {
		if err := s.Reconcile(ctx, plant.ID, *assignments); err != nil {
			s.logger.Warn("failed to reconcile assignments for new plant",
				zap.String("plant_id", plant.ID),
				zap.Error(err))
		}
	}

	return Result[domain.Plant]{Applied: outcome, Value: copyPlant(plant)}, nil
}

// UpdatePlant validates and saves plant changes. The sub-plant list cannot
// be resized once the plant exists; assignment lists are only rewritten via
// Reconcile, never through the plant record itself.
func (s *Store) UpdatePlant(ctx context.Context, plant domain.Plant, assignments *domain.Assignments) (Result[domain.Plant], error) {
	if plant.Client == "" || plant.Name == "" {
		return Result[domain.Plant]{}, fmt.Errorf("%w: client and name are required", domain.ErrInvalidInput)
	}
	if err := checkAssets(plant.Assets, domain.DefaultPlantAssets); err != nil {
		return Result[domain.Plant]{}, err
	}

	s.mu.Lock()
	idx := indexOfPlant(s.plants, plant.ID)
	if idx < 0 {
		s.mu.Unlock()
		return Result[domain.Plant]{}, domain.ErrPlantNotFound
	}
	if len(plant.SubPlants) != len(s.plants[idx].SubPlants) {
		s.mu.Unlock()
		return Result[domain.Plant]{}, domain.ErrSubPlantsFixed
	}
	for i := range plant.SubPlants {
		plant.SubPlants[i].ID = i + 1
	}
	plant.Assignments = copyAssignments(s.plants[idx].Assignments)
	s.plants[idx] = plant
	s.savePlants()
	s.mu.Unlock()

	outcome := AppliedConfirmed
	saved, err := s.gw.UpdatePlant(ctx, plant)
	if err != nil {
		s.logger.Warn("update plant not confirmed by server, keeping local state",
			zap.String("plant_id", plant.ID),
			zap.Error(err))
		outcome = AppliedLocalOnly
	} else {
		saved.Assignments = plant.Assignments
		s.mu.Lock()
		if idx := indexOfPlant(s.plants, saved.ID); idx >= 0 {
			s.plants[idx] = saved
			s.savePlants()
		}
		s.mu.Unlock()
		plant = saved
	}
	s.metrics.ObserveMutation("plant", string(outcome))

	if assignments != nil {
		if err := s.Reconcile(ctx, plant.ID, *assignments); err != nil {
			s.logger.Warn("failed to reconcile assignments on plant update",
				zap.String("plant_id", plant.ID),
				zap.Error(err))
		}
	}

	return Result[domain.Plant]{Applied: outcome, Value: copyPlant(plant)}, nil
}

// Reconcile replaces a plant's four role-scoped assignment lists and
// recomputes every user's PlantIDs projection for that plant: the lists are
// the single source of truth, PlantIDs is derived. A technician appearing in
// the lists always drags their supervisor into supervisorIds, so a
// technician never references a supervisor absent from the plant. The
// server PUT is attempted once; a failure is swallowed and the local links
// may drift from server state until the next successful bootstrap.
func (s *Store) Reconcile(ctx context.Context, plantID string, assignments domain.Assignments) error {
	assignments = copyAssignments(assignments).Normalized()

	s.mu.Lock()
	idx := indexOfPlant(s.plants, plantID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrPlantNotFound
	}

	for _, techID := range assignments.TechnicianIDs {
		ti := indexOfUser(s.users, techID)
		if ti < 0 {
			continue
		}
		if supID := s.users[ti].SupervisorID; supID != "" {
			assignments.SupervisorIDs = appendUnique(assignments.SupervisorIDs, supID)
		}
	}

	s.plants[idx].Assignments = assignments
	for i := range s.users {
		u := &s.users[i]
		switch {
		case assignments.Contains(u.ID) && !u.HasPlant(plantID):
			u.PlantIDs = append(u.PlantIDs, plantID)
		case !assignments.Contains(u.ID) && u.HasPlant(plantID):
			u.PlantIDs = removeString(u.PlantIDs, plantID)
		}
	}
	s.savePlants()
	s.saveUsers()
	s.mu.Unlock()

	if err := s.gw.PutAssignments(ctx, plantID, assignments); err != nil {
		s.logger.Warn("assignment update not confirmed by server, keeping local links",
			zap.String("plant_id", plantID),
			zap.Error(err))
		s.metrics.ObserveMutation("assignments", string(AppliedLocalOnly))
		return nil
	}
	s.metrics.ObserveMutation("assignments", string(AppliedConfirmed))
	return nil
}

// checkAssets verifies every label belongs to the allowed catalog.
func checkAssets(assets, catalog []string) error {
	for _, asset := range assets {
		found := false
		for _, allowed := range catalog {
			if asset == allowed {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: unknown asset %q", domain.ErrInvalidInput, asset)
		}
	}
	return nil
}
