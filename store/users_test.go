package store_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltasol/osboard/cache"
	"github.com/voltasol/osboard/domain"
	"github.com/voltasol/osboard/store"
	"github.com/voltasol/osboard/testutil"
)

func TestStore_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed by server", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.EchoJSON("POST /api/users")
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		res, err := s.CreateUser(ctx, domain.UserInput{
			Name:     "Bruno Lima",
			Username: " Bruno.Lima ",
			Role:     domain.RoleOperator,
			CanLogin: true,
			Password: "segredo",
		})
		require.NoError(t, err)

		assert.Equal(t, store.AppliedConfirmed, res.Applied)
		assert.Equal(t, "bruno.lima", res.Value.Username, "username is trimmed and lowercased")
		assert.NotEmpty(t, res.Value.ID)
		assert.Empty(t, res.Value.Password, "results never carry the password")
		assert.Len(t, s.Users(), 6)
	})

	t.Run("unreachable server keeps the local record", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.SetDown(true)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		res, err := s.CreateUser(ctx, domain.UserInput{
			Name:     "Bruno Lima",
			Username: "bruno.lima",
			Role:     domain.RoleOperator,
		})
		require.NoError(t, err, "network failure is an outcome, not an error")

		assert.Equal(t, store.AppliedLocalOnly, res.Applied)
		assert.Len(t, s.Users(), 6)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		_, err := s.CreateUser(ctx, domain.UserInput{
			Name:     "Outro Tiago",
			Username: "Tiago.Nunes",
			Role:     domain.RoleOperator,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
		assert.Empty(t, api.Requests(), "invalid input never reaches the network")
	})

	t.Run("malformed username is rejected", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		s := newTestStore(t, api, c)

		for _, username := range []string{"ab", "With Space", "acentuação", "UPPER!"} {
			_, err := s.CreateUser(ctx, domain.UserInput{Name: "X", Username: username, Role: domain.RoleOperator})
			assert.ErrorIs(t, err, domain.ErrInvalidInput, username)
		}
	})

	t.Run("supervisor reference rules", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		_, err := s.CreateUser(ctx, domain.UserInput{
			Name: "X", Username: "x.assistente", Role: domain.RoleAssistant, SupervisorID: "sup-1",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "only technicians report to a supervisor")

		_, err = s.CreateUser(ctx, domain.UserInput{
			Name: "X", Username: "x.tecnico", Role: domain.RoleTechnician, SupervisorID: "nope",
		})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = s.CreateUser(ctx, domain.UserInput{
			Name: "X", Username: "y.tecnico", Role: domain.RoleTechnician, SupervisorID: "coord-1",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "the referenced user must hold the supervisor role")
	})

	t.Run("plant associations are merged into assignments", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.EchoJSON("POST /api/users")
		api.Handle("PUT /api/plants/plant-1/assignments", func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, map[string]string{"status": "ok"})
		})
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		res, err := s.CreateUser(ctx, domain.UserInput{
			Name:         "Novo Técnico",
			Username:     "novo.tecnico",
			Role:         domain.RoleTechnician,
			SupervisorID: "sup-1",
			PlantIDs:     []string{"plant-1"},
		})
		require.NoError(t, err)

		var plant domain.Plant
		for _, p := range s.Plants() {
			if p.ID == "plant-1" {
				plant = p
			}
		}
		assert.Contains(t, plant.Assignments.TechnicianIDs, res.Value.ID, "existing assignees survive the merge")
		assert.Contains(t, plant.Assignments.TechnicianIDs, "tech-1")
	})
}

func TestStore_UpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("empty password keeps the stored one", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.EchoJSON("PUT /api/users/tech-1")
		c := testutil.NewMemoryCache()
		seedCache(c)
		users := fixtureUsers()
		users[3].Password = "antiga"
		c.Save(cache.SlotUsers, users)
		s := newTestStore(t, api, c)

		updated := users[3]
		updated.Name = "Tiago N. Silva"
		updated.Password = ""
		res, err := s.UpdateUser(ctx, updated)
		require.NoError(t, err)
		assert.Equal(t, store.AppliedConfirmed, res.Applied)
		assert.Equal(t, "Tiago N. Silva", res.Value.Name)

		var cached []domain.User
		require.True(t, c.Load(cache.SlotUsers, &cached))
		for _, u := range cached {
			if u.ID == "tech-1" {
				assert.Equal(t, "antiga", u.Password)
			}
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		c := testutil.NewMemoryCache()
		s := newTestStore(t, api, c)

		_, err := s.UpdateUser(ctx, domain.User{ID: "ghost", Name: "G", Username: "ghost.user", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestStore_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("scrubs the id from every assignment list", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.Handle("DELETE /api/users/tech-1", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		res, err := s.DeleteUser(ctx, "tech-1")
		require.NoError(t, err)
		assert.Equal(t, store.AppliedConfirmed, res.Applied)
		assert.Len(t, s.Users(), 4)

		for _, p := range s.Plants() {
			assert.NotContains(t, p.Assignments.TechnicianIDs, "tech-1")
		}
	})

	t.Run("unreachable server keeps the local deletion", func(t *testing.T) {
		api := testutil.NewFakeAPI(t)
		api.SetDown(true)
		c := testutil.NewMemoryCache()
		seedCache(c)
		s := newTestStore(t, api, c)

		res, err := s.DeleteUser(ctx, "assist-1")
		require.NoError(t, err)
		assert.Equal(t, store.AppliedLocalOnly, res.Applied)
		assert.Len(t, s.Users(), 4)
	})
}
