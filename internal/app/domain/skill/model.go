package skill

import "time"

type Skill struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
}

// IDs returns the identifiers of skills in order.
func IDs(skills []Skill) []int64 {
	out := make([]int64, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.ID)
	}
	return out
}
