package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voltasol/osboard/domain"
)

func TestRole(t *testing.T) {
	for _, r := range domain.Roles() {
		assert.True(t, r.Valid(), string(r))
		assert.NotEqual(t, string(r), r.Label(), "every role carries a display label")
	}
	assert.False(t, domain.Role("GERENTE").Valid())
	assert.Equal(t, "GERENTE", domain.Role("GERENTE").Label())
}

func TestStatusAndPriority(t *testing.T) {
	for _, s := range domain.Statuses() {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, domain.Status("Cancelado").Valid())

	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, domain.Priority("Crítica").Valid())
}

func TestUsername(t *testing.T) {
	valid := []string{"abc", "joao.silva", "maria_souza-2", "a1.b2_c3"}
	for _, u := range valid {
		assert.True(t, domain.ValidUsername(u), u)
	}

	invalid := []string{"", "ab", "com espaço", "João", "UPPER", "user@host", strings.Repeat("a", 33)}
	for _, u := range invalid {
		assert.False(t, domain.ValidUsername(u), u)
	}

	assert.Equal(t, "joao.silva", domain.NormalizeUsername("  Joao.Silva "))
}

func TestUserSanitized(t *testing.T) {
	u := domain.User{ID: "u1", Name: "X", Username: "x.y", Password: "segredo"}
	clean := u.Sanitized()
	assert.Empty(t, clean.Password)
	assert.Equal(t, "segredo", u.Password, "the receiver is untouched")
}

func TestUserHasPlant(t *testing.T) {
	u := domain.User{PlantIDs: []string{"p1", "p2"}}
	assert.True(t, u.HasPlant("p2"))
	assert.False(t, u.HasPlant("p3"))
}

func TestAssignments(t *testing.T) {
	coord := "c1"
	a := domain.Assignments{
		CoordinatorID: &coord,
		SupervisorIDs: []string{"s1"},
		TechnicianIDs: []string{"t1", "t2"},
	}

	t.Run("contains checks all four lists", func(t *testing.T) {
		assert.True(t, a.Contains("c1"))
		assert.True(t, a.Contains("s1"))
		assert.True(t, a.Contains("t2"))
		assert.False(t, a.Contains("x"))
	})

	t.Run("normalized never carries nil lists", func(t *testing.T) {
		n := domain.Assignments{}.Normalized()
		assert.NotNil(t, n.SupervisorIDs)
		assert.NotNil(t, n.TechnicianIDs)
		assert.NotNil(t, n.AssistantIDs)
		assert.Nil(t, n.CoordinatorID)
	})
}

func TestComposeTitle(t *testing.T) {
	assert.Equal(t, "OS0008 - Limpeza", domain.ComposeTitle("OS0008", "Limpeza"))
}

func TestValidActivity(t *testing.T) {
	assert.True(t, domain.ValidActivity("Limpeza"))
	assert.False(t, domain.ValidActivity("Pintura"))
}
