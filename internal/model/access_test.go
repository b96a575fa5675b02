package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(privileges []Privilege) []string {
	out := make([]string, len(privileges))
	for i, p := range privileges {
		out[i] = p.Code
	}
	return out
}

func TestDefaultGrants(t *testing.T) {
	all := DefaultPrivileges

	assert.Len(t, DefaultGrants(RoleMasterAdmin, all), len(all))

	admin := codes(DefaultGrants(RoleAdmin, all))
	assert.NotContains(t, admin, PrivProductDelete)
	assert.NotContains(t, admin, PrivImageMaintenance)
	assert.Contains(t, admin, PrivProductSync)
	assert.Len(t, admin, len(all)-2)

	assert.Empty(t, DefaultGrants("AUDITOR", all))
}

func TestEffectivePrivileges(t *testing.T) {
	u := &User{Privileges: []Privilege{{Code: PrivReportView}, {Code: PrivProductView}}}
	assert.Equal(t, []string{PrivProductView, PrivReportView}, u.EffectivePrivileges())
	assert.Equal(t, "", u.RoleCode())

	u.Role = &Role{Code: RoleAdmin, Privileges: []Privilege{{Code: PrivProductView}, {Code: PrivDashboardView}}}
	assert.Equal(t, []string{PrivDashboardView, PrivProductView, PrivReportView}, u.EffectivePrivileges())
	assert.Equal(t, RoleAdmin, u.ToResponse().Role)
}
