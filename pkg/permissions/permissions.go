// Package permissions defines the closed set of capability flags the
// permission engine resolves. Flags are stored as rows, not bitmasks, so
// new flags ship without a migration.
package permissions

// Owner permission (Super admin - all permissions)
const (
	Owner = "owner" // Full system access, cannot be revoked
)

// Administrative permissions (Owner/Admin only)
const (
	AdminUsers    = "admin.users"    // Manage user accounts and permissions
	AdminServices = "admin.services" // Configure Radarr and Sonarr instances
	AdminSystem   = "admin.system"   // System settings, schedules, jobs
)

// Request permissions (Most users get these)
const (
	RequestMovies = "request.movies" // Submit movie requests
	RequestSeries = "request.series" // Submit TV series requests
)

// 4K Request permissions (Special permission due to storage/bandwidth costs)
const (
	Request4KMovies = "request.4k_movies" // Submit 4K movie requests
	Request4KSeries = "request.4k_series" // Submit 4K TV series requests
)

// Auto-approval permissions (Automatically approve requests without manual review)
const (
	RequestAutoApproveMovies   = "request.auto_approve_movies"    // Automatically approve movie requests
	RequestAutoApproveSeries   = "request.auto_approve_series"    // Automatically approve TV series requests
	RequestAutoApprove4KMovies = "request.auto_approve_4k_movies" // Automatically approve 4K movie requests
	RequestAutoApprove4KSeries = "request.auto_approve_4k_series" // Automatically approve 4K TV series requests
)

// Request management permissions (Moderators)
const (
	RequestsView    = "requests.view"    // View all user requests
	RequestsApprove = "requests.approve" // Approve/deny requests
	RequestsManage  = "requests.manage"  // Edit/delete any requests
	RequestsDelete  = "requests.delete"  // Delete any user requests
)

// Quota permissions
const (
	RequestUnlimited = "request.unlimited" // Exempt from the per-user request quota
)

// All available permissions for individual assignment
var AllPermissions = []string{
	// Owner (super admin)
	Owner,

	// Administrative
	AdminUsers,
	AdminServices,
	AdminSystem,

	// Request permissions
	RequestMovies,
	RequestSeries,
	Request4KMovies,
	Request4KSeries,

	// Auto-approval permissions
	RequestAutoApproveMovies,
	RequestAutoApproveSeries,
	RequestAutoApprove4KMovies,
	RequestAutoApprove4KSeries,

	// Request management
	RequestsView,
	RequestsApprove,
	RequestsManage,
	RequestsDelete,

	// Quota
	RequestUnlimited,
}

// GetAllPermissions returns all available permissions for selection
func GetAllPermissions() []string {
	return AllPermissions
}

// GetPermissionDescription returns a human-readable description for a permission
func GetPermissionDescription(permission string) string {
	descriptions := map[string]string{
		Owner: "Full system access - cannot be revoked",

		AdminUsers:    "Manage user accounts and permissions",
		AdminServices: "Configure Radarr and Sonarr instances",
		AdminSystem:   "Manage system settings, schedules, and jobs",

		RequestMovies:   "Submit movie requests",
		RequestSeries:   "Submit TV series requests",
		Request4KMovies: "Submit 4K movie requests",
		Request4KSeries: "Submit 4K TV series requests",

		RequestAutoApproveMovies:   "Automatically approve movie requests",
		RequestAutoApproveSeries:   "Automatically approve TV series requests",
		RequestAutoApprove4KMovies: "Automatically approve 4K movie requests",
		RequestAutoApprove4KSeries: "Automatically approve 4K TV series requests",

		RequestsView:    "View all user requests",
		RequestsApprove: "Approve or deny pending requests",
		RequestsManage:  "Edit or delete any user requests",
		RequestsDelete:  "Delete any user requests",

		RequestUnlimited: "Exempt from the per-user request quota",
	}

	if desc, exists := descriptions[permission]; exists {
		return desc
	}
	return "Unknown permission"
}

// IsValidPermission checks if a permission string is valid
func IsValidPermission(permission string) bool {
	for _, known := range AllPermissions {
		if permission == known {
			return true
		}
	}
	return false
}
