package companies

import (
	"context"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Request carries the editable fields of a company. ID is ignored on create.
type Request struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Logo        string `json:"logo"`
}

// Service manages employers. Deleting a company switches off its jobs and
// recruiter accounts with it.
type Service struct {
	companies storage.CompanyStore
	jobs      storage.JobStore
	users     storage.UserStore
	log       *logger.Logger
}

// New constructs a company service.
func New(companies storage.CompanyStore, jobs storage.JobStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("companies")
	}
	return &Service{companies: companies, jobs: jobs, users: users, log: log}
}

// Create stores a new active company. createdBy overrides the principal,
// which is empty during recruiter self registration.
func (s *Service) Create(ctx context.Context, req Request, createdBy string) (company.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return company.Company{}, errors.BadRequest("company name is required")
	}
	if createdBy == "" {
		createdBy = security.CurrentEmail(ctx)
	}
	created, err := s.companies.CreateCompany(ctx, company.Company{
		Name:        name,
		Description: req.Description,
		Address:     req.Address,
		Logo:        req.Logo,
		Active:      true,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return company.Company{}, err
	}
	s.log.WithContext(ctx).WithField("company_id", created.ID).Info("company created")
	return created, nil
}

// Update replaces name, description, address and logo.
func (s *Service) Update(ctx context.Context, req Request) (company.Company, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return company.Company{}, err
	}
	current.Name = strings.TrimSpace(req.Name)
	current.Description = req.Description
	current.Address = req.Address
	current.Logo = req.Logo
	current.UpdatedBy = security.CurrentEmail(ctx)
	return s.companies.UpdateCompany(ctx, current)
}

func (s *Service) Get(ctx context.Context, id int64) (company.Company, error) {
	c, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return company.Company{}, errors.NotFound("company with id = %d does not exist", id)
		}
		return company.Company{}, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, opts storage.ListOptions) (query.Result[company.Company], error) {
	return s.companies.ListCompanies(ctx, opts)
}

// Delete deactivates the company, all of its jobs and all of its users.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.setActive(ctx, c, false); err != nil {
		return err
	}
	return nil
}

// Restore reverses Delete. Only inactive companies can be restored.
func (s *Service) Restore(ctx context.Context, id int64) (company.Company, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return company.Company{}, err
	}
	if c.Active {
		return company.Company{}, errors.NotFound("no deactivated company with id = %d", id)
	}
	return s.setActive(ctx, c, true)
}

func (s *Service) setActive(ctx context.Context, c company.Company, active bool) (company.Company, error) {
	jobs, err := s.jobs.SetJobsActiveByCompany(ctx, c.ID, active)
	if err != nil {
		return company.Company{}, err
	}
	users, err := s.users.SetUsersActiveByCompany(ctx, c.ID, active)
	if err != nil {
		return company.Company{}, err
	}
	c.Active = active
	c.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.companies.UpdateCompany(ctx, c)
	if err != nil {
		return company.Company{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"company_id": c.ID,
		"active":     active,
		"jobs":       jobs,
		"users":      users,
	}).Info("company state changed")
	return updated, nil
}
