package role

import "time"

// Built-in role names created by the seeder.
const (
	SuperAdmin = "SUPER_ADMIN"
	HR         = "HR"
	User       = "USER"
)

// Permission grants one HTTP method on one route template.
type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	APIPath   string    `json:"apiPath"`
	Method    string    `json:"method"`
	Module    string    `json:"module"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
}

// Role groups permissions.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Active      bool         `json:"active"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	CreatedBy   string       `json:"createdBy"`
	UpdatedBy   string       `json:"updatedBy"`
}

// Ref is the compact form embedded in user views.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Allows reports whether the role carries a permission for method on path.
// path is a route template such as /api/v1/jobs/{id}.
func (r Role) Allows(method, path string) bool {
	for _, p := range r.Permissions {
		if p.APIPath == path && p.Method == method {
			return true
		}
	}
	return false
}

// PermissionIDs returns the identifiers of r's permissions.
func (r Role) PermissionIDs() []int64 {
	out := make([]int64, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.ID)
	}
	return out
}
