package rbac

// Default policy. Juries only touch their own evaluations; the
// principal gets a read-only view across juries; admin can do
// everything including account provisioning.
var RolePermissions = map[string][]string{
	"jury": {
		"evaluation:create",
		"evaluation:save",
		"evaluation:view-own",
		"evaluation:delete-own",
		"export:own",
		"import:local",
		"analytics:own",
	},
	"principal": {
		"evaluation:view-all",
		"export:all",
		"analytics:all",
	},
	"admin": {
		"*", // everything
	},
}
