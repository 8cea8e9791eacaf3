package domain

// EntryRoute is where anonymous users and rejected navigations end up.
const EntryRoute = "/"

// RegisterRoute is the registration-oriented entry used for manager routes.
const RegisterRoute = "/register"

var landingRoutes = map[Role]string{
	RoleFinance:                 "/finance",
	RoleAssetManager:            "/manager",
	RoleHRManager:               "/hr",
	RoleAdminManager:            "/admin",
	RoleITManager:               "/it",
	RoleNetworkEquipmentManager: "/network-equipment",
	RoleAudioVideoManager:       "/audio-video",
	RoleFurnitureManager:        "/furniture",
	RoleEmployee:                "/employee",
}

// LandingRoute returns the default route a user of role r is sent to after
// logging in. Unknown roles get the employee route.
func LandingRoute(r Role) string {
	if path, ok := landingRoutes[r]; ok {
		return path
	}
	return landingRoutes[RoleEmployee]
}
