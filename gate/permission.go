package gate

import "strings"

// Permission is an allowed action on a resource type, written "resource:action"
// (e.g. "product:create", "invoice:complete").
type Permission string

// Wildcards accepted in either half of a permission.
const (
	WildcardAll                = "*"
	PermissionAll   Permission = "*:*"
	permissionSplit            = ":"
)

// NewPermission builds a permission from a resource type and an action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + permissionSplit + string(action))
}

// Parse splits a permission into resource type and action.
// Malformed permissions yield empty values.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), permissionSplit)
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants the requested permission.
// "*:*" grants everything, "invoice:*" grants every invoice action and
// "*:view" grants view on every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == WildcardAll || res == reqRes
	actOK := string(act) == WildcardAll || act == reqAct
	return resOK && actOK
}
