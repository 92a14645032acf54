package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a resource identifier. Providers send it as a JSON string or number;
// it is always kept as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("resource id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Resource is one repo, follower, project or dashboard. Repos, projects and
// dashboards carry Name; followers carry Login.
type Resource struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Login string `json:"login,omitempty"`
}

func (r Resource) RecordID() string {
	return string(r.ID)
}

func (r Resource) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Login
}
