package store

import (
	"sort"
	"strings"

	"github.com/voltasol/osboard/domain"
)

// FilterForRole returns the work orders a user is allowed to see. The
// switch covers every role; a role outside the closed set sees nothing.
// A supervisor sees the orders of their current reporting line, resolved
// from the users collection rather than the supervisor snapshotted on the
// order, so reassigning a technician moves their orders immediately.
func FilterForRole(user domain.User, orders []domain.WorkOrder, users []domain.User) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(orders))
	switch user.Role {
	case domain.RoleAdmin, domain.RoleOperator:
		out = append(out, orders...)
	case domain.RoleCoordinator, domain.RoleAssistant:
		for _, o := range orders {
			if user.HasPlant(o.PlantID) {
				out = append(out, o)
			}
		}
	case domain.RoleSupervisor:
		reports := make(map[string]bool)
		for _, u := range users {
			if u.Role == domain.RoleTechnician && u.SupervisorID == user.ID {
				reports[u.ID] = true
			}
		}
		for _, o := range orders {
			if reports[o.TechnicianID] {
				out = append(out, o)
			}
		}
	case domain.RoleTechnician:
		for _, o := range orders {
			if o.TechnicianID == user.ID {
				out = append(out, o)
			}
		}
	}
	return out
}

// SearchWorkOrders filters by case-insensitive substring match on id or
// title. An empty term matches everything. The result is always a fresh
// slice, never an alias of the input.
func SearchWorkOrders(orders []domain.WorkOrder, term string) []domain.WorkOrder {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.WorkOrder, 0, len(orders))
	if term == "" {
		return append(out, orders...)
	}
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.ID), term) || strings.Contains(strings.ToLower(o.Title), term) {
			out = append(out, o)
		}
	}
	return out
}

// ClientGroup is one client with its plants, used by listing screens.
type ClientGroup struct {
	Client string         `json:"client"`
	Plants []domain.Plant `json:"plants"`
}

// GroupPlantsByClient buckets plants under their client name. Plants
// without a client fall under "Sem cliente". Groups are sorted by client
// and plants by name.
func GroupPlantsByClient(plants []domain.Plant) []ClientGroup {
	byClient := make(map[string][]domain.Plant)
	for _, p := range plants {
		client := strings.TrimSpace(p.Client)
		if client == "" {
			client = "Sem cliente"
		}
		byClient[client] = append(byClient[client], p)
	}
	out := make([]ClientGroup, 0, len(byClient))
	for client, ps := range byClient {
		sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
		out = append(out, ClientGroup{Client: client, Plants: ps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// VisibleWorkOrders returns the work orders the given user may see,
// applying the role filter to the current collection.
func (s *Store) VisibleWorkOrders(userID string) []domain.WorkOrder {
	s.mu.Lock()
	idx := indexOfUser(s.users, userID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	user := s.users[idx]
	orders := copyWorkOrders(s.workOrders)
	users := copyUsers(s.users)
	s.mu.Unlock()
	return FilterForRole(user, orders, users)
}
