package company

import "time"

// Company is an employer that owns jobs and recruiter accounts.
type Company struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Logo        string    `json:"logo"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedBy   string    `json:"updatedBy"`
}

// Ref is the compact form embedded in other resources.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Ref returns the compact form of c.
func (c Company) Ref() *Ref {
	return &Ref{ID: c.ID, Name: c.Name, Logo: c.Logo}
}
