package skills

import (
	"context"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

type Request struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=255"`
}

// Service manages the skill catalogue.
type Service struct {
	store storage.SkillStore
	log   *logger.Logger
}

func New(store storage.SkillStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("skills")
	}
	return &Service{store: store, log: log}
}

// Create adds a skill. Names are unique ignoring case.
func (s *Service) Create(ctx context.Context, req Request) (skill.Skill, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return skill.Skill{}, errors.BadRequest("skill name is required")
	}
	if err := s.ensureFree(ctx, name, 0); err != nil {
		return skill.Skill{}, err
	}
	created, err := s.store.CreateSkill(ctx, skill.Skill{Name: name, CreatedBy: security.CurrentEmail(ctx)})
	if err != nil {
		return skill.Skill{}, s.conflict(err, name)
	}
	s.log.WithContext(ctx).WithField("skill", created.Name).Info("skill created")
	return created, nil
}

// Update renames a skill.
func (s *Service) Update(ctx context.Context, req Request) (skill.Skill, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return skill.Skill{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return skill.Skill{}, errors.BadRequest("skill name is required")
	}
	if err := s.ensureFree(ctx, name, current.ID); err != nil {
		return skill.Skill{}, err
	}
	current.Name = name
	current.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.store.UpdateSkill(ctx, current)
	if err != nil {
		return skill.Skill{}, s.conflict(err, name)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (skill.Skill, error) {
	sk, err := s.store.GetSkill(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return skill.Skill{}, errors.NotFound("skill with id = %d does not exist", id)
		}
		return skill.Skill{}, err
	}
	return sk, nil
}

func (s *Service) List(ctx context.Context, opts storage.ListOptions) (query.Result[skill.Skill], error) {
	return s.store.ListSkills(ctx, opts)
}

// Delete detaches the skill from jobs and subscribers and removes it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteSkill(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("skill_id", id).Info("skill deleted")
	return nil
}

func (s *Service) ensureFree(ctx context.Context, name string, exceptID int64) error {
	existing, err := s.store.GetSkillByName(ctx, name)
	switch {
	case err == nil && existing.ID != exceptID:
		return errors.Conflict("skill name = %s already exists", name)
	case err != nil && !storage.IsNotFound(err):
		return err
	}
	return nil
}

func (s *Service) conflict(err error, name string) error {
	if storage.IsConflict(err) {
		return errors.Conflict("skill name = %s already exists", name)
	}
	return err
}
