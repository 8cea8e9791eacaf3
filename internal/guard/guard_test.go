package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadron/asset-verification/internal/core/domain"
)

func user(role domain.Role) *domain.User {
	return &domain.User{ID: 1, Username: string(role), Role: role}
}

func TestAuthorize_Loading(t *testing.T) {
	assert.Equal(t, Decision{Kind: Loading}, Authorize(nil, true, []domain.Role{domain.RoleFinance}))
	assert.Equal(t, Decision{Kind: Loading}, Authorize(user(domain.RoleFinance), true, []domain.Role{domain.RoleFinance}))
}

func TestAuthorize_AnonymousAlwaysRedirects(t *testing.T) {
	sets := [][]domain.Role{nil, {}, {domain.RoleFinance}, domain.Roles}
	for _, allowed := range sets {
		assert.Equal(t, Decision{Kind: Redirect, Path: "/"}, Authorize(nil, false, allowed))
	}
}

func TestAuthorize_RendersIffRoleAllowed(t *testing.T) {
	allowed := []domain.Role{domain.RoleFinance, domain.RoleAssetManager}
	for _, role := range domain.Roles {
		d := Authorize(user(role), false, allowed)
		if role == domain.RoleFinance || role == domain.RoleAssetManager {
			assert.Equal(t, Render, d.Kind, "role %s", role)
		} else {
			assert.Equal(t, Decision{Kind: Redirect, Path: "/"}, d, "role %s", role)
		}
	}
}

func TestAuthorize_EmptyAllowedNeverRenders(t *testing.T) {
	for _, role := range domain.Roles {
		assert.Equal(t, Redirect, Authorize(user(role), false, nil).Kind)
	}
}

func TestDefaultTable_Landings(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)

	// every role's landing page renders for that role
	for _, role := range domain.Roles {
		landing := domain.LandingRoute(role)
		assert.Equal(t, Render, table.Authorize(landing, user(role), false).Kind, "role %s on %s", role, landing)
	}
}

func TestDefaultTable_Decisions(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)

	cases := []struct {
		name    string
		path    string
		user    *domain.User
		loading bool
		want    Decision
	}{
		{"entry is public", "/", nil, false, Decision{Kind: Render}},
		{"register is public while loading", "/register", nil, true, Decision{Kind: Render}},
		{"finance subpage", "/finance/reports", user(domain.RoleFinance), false, Decision{Kind: Render}},
		{"unlisted finance subpage", "/finance/reviews/42", user(domain.RoleFinance), false, Decision{Kind: NotFound}},
		{"unlisted subpage of a leaf", "/finance/anything", user(domain.RoleFinance), false, Decision{Kind: NotFound}},
		{"wrong role", "/finance", user(domain.RoleEmployee), false, Decision{Kind: Redirect, Path: "/"}},
		{"anonymous finance", "/finance", nil, false, Decision{Kind: Redirect, Path: "/"}},
		{"anonymous manager", "/manager/inventory", nil, false, Decision{Kind: Redirect, Path: "/register"}},
		{"anonymous hr", "/hr", nil, false, Decision{Kind: Redirect, Path: "/register"}},
		{"anonymous admin", "/admin", nil, false, Decision{Kind: Redirect, Path: "/register"}},
		{"anonymous it", "/it", nil, false, Decision{Kind: Redirect, Path: "/register"}},
		{"anonymous furniture", "/furniture", nil, false, Decision{Kind: Redirect, Path: "/"}},
		{"signed-in wrong role on manager", "/manager", user(domain.RoleHRManager), false, Decision{Kind: Redirect, Path: "/"}},
		{"loading protected", "/employee", nil, true, Decision{Kind: Loading}},
		{"trailing slash and query", "/employee/?tab=1", user(domain.RoleEmployee), false, Decision{Kind: Render}},
		{"it is not a prefix of items", "/items", user(domain.RoleITManager), false, Decision{Kind: NotFound}},
		{"unknown", "/nope", user(domain.RoleAdminManager), false, Decision{Kind: NotFound}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.Authorize(tc.path, tc.user, tc.loading))
		})
	}
}

func TestTable_WildcardRoutes(t *testing.T) {
	table, err := NewTable([]Route{
		{Path: "/", Public: true},
		{Path: "/finance", AllowedRoles: []domain.Role{domain.RoleFinance}},
		{Path: "/finance/reviews/*", AllowedRoles: []domain.Role{domain.RoleFinance}},
	})
	require.NoError(t, err)

	finance := user(domain.RoleFinance)
	assert.Equal(t, Render, table.Authorize("/finance/reviews/42", finance, false).Kind)
	assert.Equal(t, Render, table.Authorize("/finance/reviews/42/items", finance, false).Kind)
	assert.Equal(t, NotFound, table.Authorize("/finance/reviews", finance, false).Kind)
	assert.Equal(t, NotFound, table.Authorize("/finance/campaigns", finance, false).Kind)
	assert.Equal(t, Decision{Kind: Redirect, Path: "/"}, table.Authorize("/finance/reviews/7", user(domain.RoleEmployee), false))
}

func TestNewTable_Validation(t *testing.T) {
	cases := map[string][]Route{
		"empty":         nil,
		"relative path": {{Path: "finance", AllowedRoles: []domain.Role{domain.RoleFinance}}},
		"duplicate": {
			{Path: "/a", Public: true},
			{Path: "/a/", Public: true},
		},
		"no roles":      {{Path: "/a"}},
		"unknown role":  {{Path: "/a", AllowedRoles: []domain.Role{"network_engineer"}}},
		"self redirect": {{Path: "/a", AllowedRoles: []domain.Role{domain.RoleFinance}, Fallback: "/a"}},
	}
	for name, routes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(routes)
			assert.Error(t, err)
		})
	}
}

func TestLoadTable_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "routes.yaml")
	body := "routes:\n  - path: /\n    public: true\n  - path: /ops\n    allowed_roles: [it_manager]\n    fallback: /\n    anonymous_fallback: /register\n"
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))

	table, err := LoadTable(file)
	require.NoError(t, err)

	routes := table.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/", routes[0].Path)
	assert.Equal(t, Decision{Kind: Redirect, Path: "/register"}, table.Authorize("/ops", nil, false))
}

func TestKind_MarshalText(t *testing.T) {
	b, err := Redirect.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "redirect", string(b))
	assert.Equal(t, "not_found", NotFound.String())
}
