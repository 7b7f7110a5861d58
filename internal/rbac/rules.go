package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"assistant": {
		"results:view",
		"exports:view",
	},
	"teacher": {
		"reports:grade",
		"results:view",
		"exports:view",
		"sessions:manage",
	},
	"admin": {
		"*", // everything
	},
}
