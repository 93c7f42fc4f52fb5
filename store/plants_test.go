package store_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltasol/osboard/domain"
	"github.com/voltasol/osboard/store"
	"github.com/voltasol/osboard/testutil"
)

func TestStore_CreatePlant(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns sequential sub-plant ids", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.EchoJSON("POST /api/plants")
		c := testutil.NewMemoryCache()
		s := newTestStore(t, api, c)

		res, err := s.CreatePlant(ctx, domain.PlantInput{
			Client:    "Enel",
			Name:      "Usina Leste",
			SubPlants: []domain.SubPlantInput{{InverterCount: 8}, {InverterCount: 4}, {InverterCount: 2}},
			Assets:    []string{domain.DefaultPlantAssets[0]},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, store.AppliedConfirmed, res.Applied)
		require.Len(t, res.Value.SubPlants, 3)
		for i, sp := range res.Value.SubPlants {
			assert.Equal(t, i+1, sp.ID)
		}
	})

	t.Run("rejects assets outside the catalog", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		s := newTestStore(t, api, c)

		_, err := s.CreatePlant(ctx, domain.PlantInput{
			Client: "Enel",
			Name:   "Usina Leste",
			Assets: []string{"Gerador a diesel"},
		}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unreachable server keeps the local plant", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.SetDown(true)
		c := testutil.NewMemoryCache()
		s := newTestStore(t, api, c)

		res, err := s.CreatePlant(ctx, domain.PlantInput{Client: "Enel", Name: "Usina Oeste"}, nil)
		require.NoError(t, err)
		assert.Equal(t, store.AppliedLocalOnly, res.Applied)
		assert.Len(t, s.Plants(), 1)
	})
}

func TestStore_UpdatePlant(t *testing.T) {
	ctx := context.Background()

	t.Run("sub-plant list size is fixed after creation", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		plant := s.Plants()[0]
		plant.SubPlants = append(plant.SubPlants, domain.SubPlant{InverterCount: 1})
		_, err := s.UpdatePlant(ctx, plant, nil)
		assert.ErrorIs(t, err, domain.ErrSubPlantsFixed)
	})

	t.Run("edits survive an unreachable server", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.SetDown(true)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		plant := s.Plants()[0]
		plant.Name = "Usina Norte II"
		res, err := s.UpdatePlant(ctx, plant, nil)
		require.NoError(t, err)
		assert.Equal(t, store.AppliedLocalOnly, res.Applied)
		assert.Equal(t, "Usina Norte II", s.Plants()[0].Name)
	})
}

func TestStore_Reconcile(t *testing.T) {
	ctx := context.Background()

	newReconcileStore := func(t *testing.T, down bool) (*store.Store, *testutil.FakeAPI) {
		api := testutil.NewFakeAPI(t)
		if down {
			api.SetDown(true)
		} else {
			api.Handle("PUT /api/plants/plant-1/assignments", func(w http.ResponseWriter, r *http.Request) {
				testutil.WriteJSON(w, map[string]string{"status": "ok"})
			})
		}
		c := testutil.NewMemoryCache()
		seedCache(c)
		return newTestStore(t, api, c), api
	}

	findUser := func(s *store.Store, id string) domain.User {
		for _, u := range s.Users() {
			if u.ID == id {
				return u
			}
		}
		return domain.User{}
	}

	t.Run("technician drags their supervisor into the plant", func(t *testing.T) {
		s, _ := newReconcileStore(t, false)

		err := s.Reconcile(ctx, "plant-1", domain.Assignments{
			TechnicianIDs: []string{"tech-1"},
		})
		require.NoError(t, err)

		plant := s.Plants()[0]
		assert.Contains(t, plant.Assignments.SupervisorIDs, "sup-1",
			"a listed technician never references a supervisor absent from the plant")
	})

	t.Run("plantIds projection follows the lists both ways", func(t *testing.T) {
		s, _ := newReconcileStore(t, false)

		err := s.Reconcile(ctx, "plant-1", domain.Assignments{
			TechnicianIDs: []string{"tech-1"},
		})
		require.NoError(t, err)

		assert.True(t, findUser(s, "tech-1").HasPlant("plant-1"))
		assert.True(t, findUser(s, "sup-1").HasPlant("plant-1"), "dragged-in supervisor keeps the link")
		assert.False(t, findUser(s, "assist-1").HasPlant("plant-1"), "dropped assignees lose the link")
		assert.False(t, findUser(s, "coord-1").HasPlant("plant-1"))
	})

	t.Run("idempotent", func(t *testing.T) {
		s, _ := newReconcileStore(t, false)

		a := domain.Assignments{TechnicianIDs: []string{"tech-1"}, AssistantIDs: []string{"assist-1"}}
		require.NoError(t, s.Reconcile(ctx, "plant-1", a))
		before := s.Plants()[0].Assignments
		require.NoError(t, s.Reconcile(ctx, "plant-1", a))

		assert.Equal(t, before, s.Plants()[0].Assignments)
		assert.Equal(t, []string{"plant-1"}, findUser(s, "tech-1").PlantIDs)
	})

	t.Run("unknown plant", func(t *testing.T) {
		s, _ := newReconcileStore(t, false)
		err := s.Reconcile(ctx, "ghost", domain.Assignments{})
		assert.ErrorIs(t, err, domain.ErrPlantNotFound)
	})

	t.Run("unreachable server keeps the local links", func(t *testing.T) {
		s, _ := newReconcileStore(t, true)

		err := s.Reconcile(ctx, "plant-1", domain.Assignments{TechnicianIDs: []string{"tech-1"}})
		require.NoError(t, err, "a failed PUT is drift, not an error")
		assert.Contains(t, s.Plants()[0].Assignments.TechnicianIDs, "tech-1")
	})
}
