package guard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/squadron/asset-verification/internal/core/domain"
)

//go:embed routes.yaml
var defaultRoutes []byte

// Route is one entry of the route table.
type Route struct {
	Path              string        `yaml:"path" json:"path"`
	AllowedRoles      []domain.Role `yaml:"allowed_roles" json:"allowedRoles,omitempty"`
	Fallback          string        `yaml:"fallback" json:"fallback,omitempty"`
	AnonymousFallback string        `yaml:"anonymous_fallback" json:"anonymousFallback,omitempty"`
	Public            bool          `yaml:"public" json:"public,omitempty"`
}

// Table resolves paths to routes and authorizes them. A path ending in "/*"
// matches every page below it, but not the page itself.
type Table struct {
	routes    []Route
	byPath    map[string]int
	wildcards map[string]int
}

type tableFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadTable reads the route table at file, or the built-in one when file is empty.
func LoadTable(file string) (*Table, error) {
	data := defaultRoutes
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read route table: %w", err)
		}
		data = b
	}

	var tf tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode route table: %w", err)
	}
	return NewTable(tf.Routes)
}

// NewTable validates routes and fills in default fallbacks.
func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("route table is empty")
	}

	t := &Table{
		routes:    make([]Route, 0, len(routes)),
		byPath:    make(map[string]int, len(routes)),
		wildcards: make(map[string]int),
	}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /", r.Path)
		}
		r.Path = clean(r.Path)
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("route %q: declared twice", r.Path)
		}
		if !r.Public && len(r.AllowedRoles) == 0 {
			return nil, fmt.Errorf("route %q: needs allowed_roles or public", r.Path)
		}
		for _, role := range r.AllowedRoles {
			if !role.Valid() {
				return nil, fmt.Errorf("route %q: unknown role %q", r.Path, role)
			}
		}
		if r.Fallback == "" {
			r.Fallback = domain.EntryRoute
		}
		if r.AnonymousFallback == "" {
			r.AnonymousFallback = domain.EntryRoute
		}
		if !r.Public && (r.Fallback == r.Path || r.AnonymousFallback == r.Path) {
			return nil, fmt.Errorf("route %q: redirects to itself", r.Path)
		}

		if base, ok := wildcardBase(r.Path); ok {
			t.wildcards[base] = len(t.routes)
		}
		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// Routes returns the table ordered by path.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Match finds the route for p: an exact entry, else the nearest "/*" entry
// above it. Anything else is unknown.
func (t *Table) Match(p string) (Route, bool) {
	p = clean(p)
	if i, ok := t.byPath[p]; ok {
		return t.routes[i], true
	}
	for cur := path.Dir(p); ; cur = path.Dir(cur) {
		if i, ok := t.wildcards[cur]; ok && cur != p {
			return t.routes[i], true
		}
		if cur == "/" {
			return Route{}, false
		}
	}
}

func wildcardBase(p string) (string, bool) {
	if !strings.HasSuffix(p, "/*") {
		return "", false
	}
	base := strings.TrimSuffix(p, "/*")
	if base == "" {
		base = "/"
	}
	return base, true
}

// Authorize decides what the page at p does for user.
func (t *Table) Authorize(p string, user *domain.User, isLoading bool) Decision {
	r, ok := t.Match(p)
	if !ok {
		return Decision{Kind: NotFound}
	}
	if r.Public {
		return Decision{Kind: Render}
	}

	d := Authorize(user, isLoading, r.AllowedRoles)
	if d.Kind != Redirect {
		return d
	}
	if user == nil {
		d.Path = r.AnonymousFallback
	} else {
		d.Path = r.Fallback
	}
	return d
}

func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
