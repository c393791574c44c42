package subscriber

import (
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
)

// Subscriber receives a daily digest of jobs matching their skills.
type Subscriber struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Skills    []skill.Skill `json:"skills"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	CreatedBy string        `json:"createdBy"`
	UpdatedBy string        `json:"updatedBy"`
}
