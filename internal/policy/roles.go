package policy

import (
	"fmt"

	"github.com/diewo77/scanpos/gate"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Resource types guarded by the gate.
const (
	ResourceProduct = "product"
	ResourceInvoice = "invoice"
	ResourceUser    = "user"
	ResourceReport  = "report"
)

var roleProfiles = map[Role]*gate.StaticProfile{
	RoleAdmin: gate.NewStaticProfile(string(RoleAdmin), gate.PermissionAll),
	RoleCashier: gate.NewStaticProfile(string(RoleCashier),
		gate.NewPermission(ResourceProduct, gate.ActionList),
		gate.NewPermission(ResourceProduct, gate.ActionView),
		gate.NewPermission(ResourceInvoice, gate.ActionList),
		gate.NewPermission(ResourceInvoice, gate.ActionView),
		gate.NewPermission(ResourceInvoice, gate.ActionCreate),
		gate.NewPermission(ResourceInvoice, gate.ActionUpdate),
		gate.NewPermission(ResourceInvoice, gate.ActionComplete),
		gate.NewPermission(ResourceReport, gate.ActionView),
	),
}

// ParseRole validates a stored or submitted role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleProfiles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleProfiles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ProfileFor returns the permission profile of a role, nil for unknown roles.
func ProfileFor(r Role) gate.Profile {
	p, ok := roleProfiles[r]
	if !ok {
		return nil
	}
	return p
}

// Can is the single permission check shared by the API and the terminal
// front-end.
func Can(r Role, action gate.Action, resourceType string) bool {
	p, ok := roleProfiles[r]
	return ok && p.HasPermission(gate.NewPermission(resourceType, action))
}
