package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocumentCoversAuthAPI(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("swagger document is not valid JSON: %v", err)
	}
	for _, p := range []string{"/api/auth/login", "/api/auth/logout", "/api/auth/me", "/api/auth/register"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("swagger document is missing %s", p)
		}
	}
}
