package rbac

import "context"

// Checker answers "may this role do that" against a role→permission table.
// The zero table falls back to the built-in roles.
type Checker struct {
	table map[string][]string
}

func NewChecker(table map[string][]string) *Checker {
	if table == nil {
		table = RolePermissions
	}
	return &Checker{table: table}
}

// Has reports whether role carries perm. A role holding "*" (admin)
// passes every check.
func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.table[role] {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// Any reports whether role carries at least one of the given perms.
func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(roleKey{}).(string)
	return s
}
