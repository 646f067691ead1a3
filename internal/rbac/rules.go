package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"learner": {
		"lesson:view",
		"practice:submit",
		"practice:navigate",
		"practice:restart",
		"practice:retry",
		"practice:view-own",
	},
	"author": {
		"lesson:create",
		"lesson:view",
		"asset:upload",
		"progress:events",
		"practice:*",
	},
	"admin": {
		"*", // everything
	},
}
