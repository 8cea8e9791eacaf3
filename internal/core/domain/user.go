package domain

import "time"

// Role is the fixed category that decides which dashboard and API scope a
// user may access.
type Role string

const (
	RoleFinance                 Role = "finance"
	RoleAssetManager            Role = "manager"
	RoleEmployee                Role = "employee"
	RoleHRManager               Role = "hr_manager"
	RoleAdminManager            Role = "admin_manager"
	RoleITManager               Role = "it_manager"
	RoleNetworkEquipmentManager Role = "network_equipment_manager"
	RoleAudioVideoManager       Role = "audio_video_manager"
	RoleFurnitureManager        Role = "furniture_manager"
)

// Roles lists every valid role in display order.
var Roles = []Role{
	RoleFinance,
	RoleAssetManager,
	RoleEmployee,
	RoleHRManager,
	RoleAdminManager,
	RoleITManager,
	RoleNetworkEquipmentManager,
	RoleAudioVideoManager,
	RoleFurnitureManager,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// User models an authenticated actor in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Department   string    `json:"department,omitempty"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
