package users

import (
	"context"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// CreateRequest is the payload of an administrator creating an account.
type CreateRequest struct {
	Name      string      `json:"name" validate:"required"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=6"`
	Age       int         `json:"age" validate:"gte=0,lte=150"`
	Gender    user.Gender `json:"gender"`
	Address   string      `json:"address"`
	CompanyID *int64      `json:"companyId"`
	RoleID    *int64      `json:"roleId"`
}

// UpdateRequest replaces the editable profile fields of an account.
type UpdateRequest struct {
	ID        int64       `json:"id" validate:"required"`
	Name      string      `json:"name"`
	Age       int         `json:"age" validate:"gte=0,lte=150"`
	Gender    user.Gender `json:"gender"`
	Address   string      `json:"address"`
	Avatar    string      `json:"avatar"`
	CV        string      `json:"cv"`
	CompanyID *int64      `json:"companyId"`
	RoleID    *int64      `json:"roleId"`
}

// ChangePasswordRequest replaces a password after checking the old one.
type ChangePasswordRequest struct {
	UserID      int64  `json:"userId" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Service manages accounts and the soft delete cascade they own.
type Service struct {
	users     storage.UserStore
	companies storage.CompanyStore
	roles     storage.RoleStore
	resumes   storage.ResumeStore
	log       *logger.Logger
}

// New constructs a user service.
func New(users storage.UserStore, companies storage.CompanyStore, roles storage.RoleStore, resumes storage.ResumeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{users: users, companies: companies, roles: roles, resumes: resumes, log: log}
}

// Create registers a new active account. Unknown company or role ids are
// dropped rather than rejected.
func (s *Service) Create(ctx context.Context, req CreateRequest) (user.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return user.User{}, errors.BadRequest("email is required")
	}
	if !req.Gender.Valid() {
		return user.User{}, errors.BadRequest("invalid gender %q", req.Gender)
	}
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, errors.BadRequest("%v", err)
	}
	u := user.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Age:          req.Age,
		Gender:       req.Gender,
		Address:      req.Address,
		Active:       true,
		CreatedBy:    security.CurrentEmail(ctx),
	}
	u.CompanyID = s.resolveCompany(ctx, req.CompanyID)
	u.RoleID = s.resolveRole(ctx, req.RoleID)
	return s.Insert(ctx, u)
}

// Insert stores an already prepared account. It is shared with registration
// flows that build the user themselves.
func (s *Service) Insert(ctx context.Context, u user.User) (user.User, error) {
	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if storage.IsConflict(err) {
			return user.User{}, errors.Conflict("email %s already exists, please use another email", u.Email)
		}
		return user.User{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id": created.ID,
		"email":   created.Email,
	}).Info("user created")
	return created, nil
}

// EmailExists reports whether an account uses email.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if storage.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return user.User{}, errors.NotFound("user with id = %d does not exist", id)
		}
		return user.User{}, err
	}
	return u, nil
}

// GetByEmail returns the user registered with email.
func (s *Service) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return user.User{}, errors.NotFound("user %s does not exist", email)
		}
		return user.User{}, err
	}
	return u, nil
}

// List returns a page of users. Password hashes and tokens never leave the
// store through the JSON encoding of user.User.
func (s *Service) List(ctx context.Context, opts storage.ListOptions) (query.Result[user.User], error) {
	return s.users.ListUsers(ctx, opts)
}

// Update replaces the profile fields of an existing user.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (user.User, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return user.User{}, err
	}
	if !req.Gender.Valid() {
		return user.User{}, errors.BadRequest("invalid gender %q", req.Gender)
	}
	current.Name = req.Name
	current.Age = req.Age
	current.Address = req.Address
	current.Avatar = req.Avatar
	current.CV = req.CV
	if req.Gender != "" {
		current.Gender = req.Gender
	}
	if req.CompanyID != nil {
		current.CompanyID = s.resolveCompany(ctx, req.CompanyID)
	}
	if req.RoleID != nil {
		current.RoleID = s.resolveRole(ctx, req.RoleID)
	}
	current.UpdatedBy = security.CurrentEmail(ctx)
	return s.users.UpdateUser(ctx, current)
}

// ChangePassword replaces the password once the old one is verified.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) (user.User, error) {
	current, err := s.Get(ctx, req.UserID)
	if err != nil {
		return user.User{}, err
	}
	if !security.CheckPassword(current.PasswordHash, req.OldPassword) {
		return user.User{}, errors.BadRequest("old password is incorrect")
	}
	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return user.User{}, errors.BadRequest("%v", err)
	}
	current.PasswordHash = hash
	current.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.users.UpdateUser(ctx, current)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithContext(ctx).WithField("user_id", updated.ID).Info("password changed")
	return updated, nil
}

// SetRefreshToken stores (or clears, with "") the refresh token of email.
func (s *Service) SetRefreshToken(ctx context.Context, email, token string) error {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return err
	}
	u.RefreshToken = token
	_, err = s.users.UpdateUser(ctx, u)
	return err
}

// Delete deactivates the user and their resumes. When the user was the last
// active recruiter of a company the company is deactivated too.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.resumes.SetResumesActiveByUser(ctx, u.ID, false); err != nil {
		return err
	}
	if s.isRecruiter(u) {
		others, err := s.otherActiveMembers(ctx, u)
		if err != nil {
			return err
		}
		if others == 0 {
			if err := s.setCompanyActive(ctx, *u.CompanyID, false); err != nil {
				return err
			}
		}
	}
	u.Active = false
	u.RefreshToken = ""
	u.UpdatedBy = security.CurrentEmail(ctx)
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("user_id", id).Info("user deactivated")
	return nil
}

// Restore reactivates a deactivated user, their resumes and, when nobody else
// keeps it alive, their company.
func (s *Service) Restore(ctx context.Context, id int64) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if u.Active {
		return user.User{}, errors.NotFound("no deactivated user with id = %d", id)
	}
	if _, err := s.resumes.SetResumesActiveByUser(ctx, u.ID, true); err != nil {
		return user.User{}, err
	}
	if s.isRecruiter(u) {
		others, err := s.otherActiveMembers(ctx, u)
		if err != nil {
			return user.User{}, err
		}
		c, err := s.companies.GetCompany(ctx, *u.CompanyID)
		if err == nil && others == 0 && !c.Active {
			if err := s.setCompanyActive(ctx, c.ID, true); err != nil {
				return user.User{}, err
			}
		} else if err != nil && !storage.IsNotFound(err) {
			return user.User{}, err
		}
	}
	u.Active = true
	u.UpdatedBy = security.CurrentEmail(ctx)
	restored, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithContext(ctx).WithField("user_id", id).Info("user restored")
	return restored, nil
}

func (s *Service) isRecruiter(u user.User) bool {
	return u.CompanyID != nil && u.Role != nil && u.Role.Name == role.HR
}

func (s *Service) otherActiveMembers(ctx context.Context, u user.User) (int, error) {
	members, err := s.users.ListUsersByCompany(ctx, *u.CompanyID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if m.ID != u.ID && m.Active {
			n++
		}
	}
	return n, nil
}

func (s *Service) setCompanyActive(ctx context.Context, id int64, active bool) error {
	c, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return err
	}
	c.Active = active
	c.UpdatedBy = security.CurrentEmail(ctx)
	if _, err := s.companies.UpdateCompany(ctx, c); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"company_id": id,
		"active":     active,
	}).Info("company state follows its last recruiter")
	return nil
}

func (s *Service) resolveCompany(ctx context.Context, id *int64) *int64 {
	if id == nil {
		return nil
	}
	c, err := s.companies.GetCompany(ctx, *id)
	if err != nil {
		return nil
	}
	return &c.ID
}

func (s *Service) resolveRole(ctx context.Context, id *int64) *int64 {
	if id == nil {
		return nil
	}
	r, err := s.roles.GetRole(ctx, *id)
	if err != nil {
		return nil
	}
	return &r.ID
}
