package roles

// Role is the catalog view of one hierarchy entry.
type Role struct {
	Name               string   `json:"name"`
	DisplayName        string   `json:"display_name"`
	Level              int      `json:"level"`
	DefaultPermissions []string `json:"default_permissions"`
}
