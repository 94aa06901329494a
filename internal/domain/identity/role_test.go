package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleManager, RoleCashier, RoleInventoryClerk, RoleAccountant} {
		assert.True(t, r.IsValid(), string(r))
	}
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("superuser").IsValid())
	assert.False(t, Role("Admin").IsValid())
}
