// Package store implements the local-first data layer of the dashboard: it
// owns the user, plant and work-order collections plus notifications,
// mutates them optimistically while attempting to persist each change
// through the gateway, and keeps the plant↔user relationship consistent.
// Network failures never roll back a mutation; the optimistic local state is
// the durable result until the next successful bootstrap.
package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/voltasol/osboard/cache"
	"github.com/voltasol/osboard/domain"
	"github.com/voltasol/osboard/gateway"
	"github.com/voltasol/osboard/metrics"
	"github.com/voltasol/osboard/spool"
	"go.uber.org/zap"
)

// Applied tells a caller whether a mutation was confirmed by the server or
// kept as optimistic local-only state.
type Applied string

const (
	// AppliedConfirmed means the server acknowledged the mutation and the
	// value below is its canonical response.
	AppliedConfirmed Applied = "confirmed"
	// AppliedLocalOnly means the network call failed and the optimistic
	// local value stands as the durable result.
	AppliedLocalOnly Applied = "local-only"
)

// Result is the outcome of one mutation.
type Result[T any] struct {
	Applied Applied
	Value   T
}

// Options configures a Store. Cache and Gateway are required; the cache is
// injected rather than reached for globally so tests can substitute an
// in-memory fake.
type Options struct {
	Cache   cache.Cache
	Gateway *gateway.Client
	Spool   *spool.Spool
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Store owns the in-memory collections. All mutation goes through its
// methods; reads return copies. A single mutex serializes state access, but
// network calls run outside the lock: two rapid-fire mutations can still
// interleave their responses out of order, which is an accepted limitation.
type Store struct {
	gw      *gateway.Client
	cache   cache.Cache
	spool   *spool.Spool
	logger  *zap.Logger
	metrics *metrics.Metrics
	valid   *validator.Validate

	bootstrapped atomic.Bool

	mu            sync.Mutex
	users         []domain.User
	plants        []domain.Plant
	workOrders    []domain.WorkOrder
	notifications []domain.Notification
}

// New constructs a store and synchronously loads whatever the durable cache
// holds. Missing or unreadable slots fall back to empty collections; no
// network access happens here.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		gw:      opts.Gateway,
		cache:   opts.Cache,
		spool:   opts.Spool,
		logger:  logger,
		metrics: opts.Metrics,
		valid:   validator.New(),
	}

	s.cache.Load(cache.SlotUsers, &s.users)
	s.cache.Load(cache.SlotPlants, &s.plants)
	s.cache.Load(cache.SlotWorkOrders, &s.workOrders)
	s.cache.Load(cache.SlotNotifications, &s.notifications)
	return s
}

// SetAuthHeaders injects auth context into every subsequent gateway request.
// The store is usually constructed before an identity is known.
func (s *Store) SetAuthHeaders(headers map[string]string) {
	s.gw.SetAuthHeaders(headers)
}

// Bootstrap fetches the authoritative collections in parallel. Each
// successful response replaces the corresponding in-memory collection and
// cache slot; a failed request keeps the cached data. Runs at most once per
// store lifetime; later calls are no-ops.
func (s *Store) Bootstrap(ctx context.Context) {
	if !s.bootstrapped.CompareAndSwap(false, true) {
		return
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		users, err := s.gw.GetUsers(ctx)
		if err != nil {
			s.logger.Info("bootstrap users fetch failed, keeping cached data", zap.Error(err))
			s.metrics.ObserveBootstrap(cache.SlotUsers, metrics.SourceCache)
			return
		}
		s.mu.Lock()
		s.users = users
		s.saveUsers()
		s.mu.Unlock()
		s.metrics.ObserveBootstrap(cache.SlotUsers, metrics.SourceRemote)
	}()

	go func() {
		defer wg.Done()
		plants, err := s.gw.GetPlants(ctx)
		if err != nil {
			s.logger.Info("bootstrap plants fetch failed, keeping cached data", zap.Error(err))
			s.metrics.ObserveBootstrap(cache.SlotPlants, metrics.SourceCache)
			return
		}
		s.mu.Lock()
		s.plants = plants
		s.savePlants()
		s.mu.Unlock()
		s.metrics.ObserveBootstrap(cache.SlotPlants, metrics.SourceRemote)
	}()

	go func() {
		defer wg.Done()
		orders, err := s.gw.GetWorkOrders(ctx)
		if err != nil {
			s.logger.Info("bootstrap work-orders fetch failed, keeping cached data", zap.Error(err))
			s.metrics.ObserveBootstrap(cache.SlotWorkOrders, metrics.SourceCache)
			return
		}
		s.mu.Lock()
		s.workOrders = orders
		s.saveWorkOrders()
		s.mu.Unlock()
		s.metrics.ObserveBootstrap(cache.SlotWorkOrders, metrics.SourceRemote)
	}()

	wg.Wait()
	s.logger.Info("bootstrap completed")
}

// Users returns a copy of the user collection. Passwords are never echoed.
func (s *Store) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUsers(s.users)
}

// Plants returns a copy of the plant collection.
func (s *Store) Plants() []domain.Plant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPlants(s.plants)
}

// WorkOrders returns a copy of the work-order collection.
func (s *Store) WorkOrders() []domain.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyWorkOrders(s.workOrders)
}

// Notifications returns a copy of the notification collection, newest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// Cache persistence. Called with the store lock held; failures are the
// cache's problem (logged there, never surfaced).

func (s *Store) saveUsers()         { s.cache.Save(cache.SlotUsers, s.users) }
func (s *Store) savePlants()        { s.cache.Save(cache.SlotPlants, s.plants) }
func (s *Store) saveWorkOrders()    { s.cache.Save(cache.SlotWorkOrders, s.workOrders) }
func (s *Store) saveNotifications() { s.cache.Save(cache.SlotNotifications, s.notifications) }

func copyUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	return out
}

func copyPlants(plants []domain.Plant) []domain.Plant {
	out := make([]domain.Plant, len(plants))
	for i, p := range plants {
		out[i] = copyPlant(p)
	}
	return out
}

func copyPlant(p domain.Plant) domain.Plant {
	p.SubPlants = append([]domain.SubPlant(nil), p.SubPlants...)
	p.Assets = append([]string(nil), p.Assets...)
	p.Assignments = copyAssignments(p.Assignments)
	return p
}

func copyAssignments(a domain.Assignments) domain.Assignments {
	if a.CoordinatorID != nil {
		id := *a.CoordinatorID
		a.CoordinatorID = &id
	}
	a.SupervisorIDs = append([]string(nil), a.SupervisorIDs...)
	a.TechnicianIDs = append([]string(nil), a.TechnicianIDs...)
	a.AssistantIDs = append([]string(nil), a.AssistantIDs...)
	return a
}

func copyWorkOrders(orders []domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, len(orders))
	for i, o := range orders {
		out[i] = copyWorkOrder(o)
	}
	return out
}

func copyWorkOrder(o domain.WorkOrder) domain.WorkOrder {
	o.Assets = append([]string(nil), o.Assets...)
	o.ImageAttachments = append([]domain.ImageAttachment(nil), o.ImageAttachments...)
	o.Logs = append([]domain.OSLog(nil), o.Logs...)
	return o
}

// indexOfUser returns the position of a user id, or -1.
func indexOfUser(users []domain.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfPlant returns the position of a plant id, or -1.
func indexOfPlant(plants []domain.Plant, id string) int {
	for i := range plants {
		if plants[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfWorkOrder returns the position of a work-order id, or -1.
func indexOfWorkOrder(orders []domain.WorkOrder, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
