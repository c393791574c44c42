// Package roles manages roles, the permission catalogue and the initial seed
// of both.
package roles

import (
	"context"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// IDRef references an existing record by id.
type IDRef struct {
	ID int64 `json:"id"`
}

// RoleRequest carries the editable fields of a role.
type RoleRequest struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Active      bool    `json:"active"`
	Permissions []IDRef `json:"permissions"`
}

// PermissionRequest carries the editable fields of a permission.
type PermissionRequest struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required"`
	APIPath string `json:"apiPath" validate:"required"`
	Method  string `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Module  string `json:"module" validate:"required"`
}

// Service manages roles and permissions.
type Service struct {
	roles       storage.RoleStore
	permissions storage.PermissionStore
	users       storage.UserStore
	log         *logger.Logger
}

// New constructs a role service.
func New(roles storage.RoleStore, permissions storage.PermissionStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("roles")
	}
	return &Service{roles: roles, permissions: permissions, users: users, log: log}
}

// Roles ------------------------------------------------------------------------

func (s *Service) CreateRole(ctx context.Context, req RoleRequest) (role.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return role.Role{}, errors.BadRequest("role name is required")
	}
	perms, err := s.resolvePermissions(ctx, req.Permissions)
	if err != nil {
		return role.Role{}, err
	}
	created, err := s.roles.CreateRole(ctx, role.Role{
		Name:        name,
		Description: req.Description,
		Active:      req.Active,
		Permissions: perms,
		CreatedBy:   security.CurrentEmail(ctx),
	})
	if err != nil {
		if storage.IsConflict(err) {
			return role.Role{}, errors.Conflict("role %s already exists", name)
		}
		return role.Role{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"role":        created.Name,
		"permissions": len(created.Permissions),
	}).Info("role created")
	return created, nil
}

func (s *Service) UpdateRole(ctx context.Context, req RoleRequest) (role.Role, error) {
	current, err := s.GetRole(ctx, req.ID)
	if err != nil {
		return role.Role{}, err
	}
	perms, err := s.resolvePermissions(ctx, req.Permissions)
	if err != nil {
		return role.Role{}, err
	}
	current.Name = strings.TrimSpace(req.Name)
	current.Description = req.Description
	current.Active = req.Active
	current.Permissions = perms
	current.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.roles.UpdateRole(ctx, current)
	if err != nil {
		if storage.IsConflict(err) {
			return role.Role{}, errors.Conflict("role %s already exists", current.Name)
		}
		return role.Role{}, err
	}
	return updated, nil
}

func (s *Service) GetRole(ctx context.Context, id int64) (role.Role, error) {
	r, err := s.roles.GetRole(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return role.Role{}, errors.NotFound("role with id = %d does not exist", id)
		}
		return role.Role{}, err
	}
	return r, nil
}

// RoleByName resolves a built-in role such as role.HR.
func (s *Service) RoleByName(ctx context.Context, name string) (role.Role, error) {
	r, err := s.roles.GetRoleByName(ctx, name)
	if err != nil {
		if storage.IsNotFound(err) {
			return role.Role{}, errors.NotFound("role %s does not exist", name)
		}
		return role.Role{}, err
	}
	return r, nil
}

func (s *Service) ListRoles(ctx context.Context, opts storage.ListOptions) (query.Result[role.Role], error) {
	return s.roles.ListRoles(ctx, opts)
}

// DeleteRole removes the role; its users keep their accounts without a role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	r, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if r.Name == role.SuperAdmin {
		return errors.BadRequest("role %s cannot be deleted", r.Name)
	}
	if err := s.roles.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("role", r.Name).Info("role deleted")
	return nil
}

// Allows reports whether the user with userID may call method on the route
// template path. SUPER_ADMIN is allowed everything.
func (s *Service) Allows(ctx context.Context, userID int64, method, path string) (bool, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if u.RoleID == nil {
		return false, nil
	}
	r, err := s.roles.GetRole(ctx, *u.RoleID)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !r.Active {
		return false, nil
	}
	if r.Name == role.SuperAdmin {
		return true, nil
	}
	return r.Allows(method, path), nil
}

func (s *Service) resolvePermissions(ctx context.Context, refs []IDRef) ([]role.Permission, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return s.permissions.ListPermissionsByIDs(ctx, ids)
}

// Permissions ------------------------------------------------------------------

func (s *Service) CreatePermission(ctx context.Context, req PermissionRequest) (role.Permission, error) {
	p := role.Permission{
		Name:      strings.TrimSpace(req.Name),
		APIPath:   strings.TrimSpace(req.APIPath),
		Method:    strings.ToUpper(strings.TrimSpace(req.Method)),
		Module:    strings.TrimSpace(req.Module),
		CreatedBy: security.CurrentEmail(ctx),
	}
	created, err := s.permissions.CreatePermission(ctx, p)
	if err != nil {
		if storage.IsConflict(err) {
			return role.Permission{}, errors.Conflict("permission %s %s already exists", p.Method, p.APIPath)
		}
		return role.Permission{}, err
	}
	return created, nil
}

func (s *Service) UpdatePermission(ctx context.Context, req PermissionRequest) (role.Permission, error) {
	current, err := s.GetPermission(ctx, req.ID)
	if err != nil {
		return role.Permission{}, err
	}
	current.Name = strings.TrimSpace(req.Name)
	current.APIPath = strings.TrimSpace(req.APIPath)
	current.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	current.Module = strings.TrimSpace(req.Module)
	current.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.permissions.UpdatePermission(ctx, current)
	if err != nil {
		if storage.IsConflict(err) {
			return role.Permission{}, errors.Conflict("permission %s %s already exists", current.Method, current.APIPath)
		}
		return role.Permission{}, err
	}
	return updated, nil
}

func (s *Service) GetPermission(ctx context.Context, id int64) (role.Permission, error) {
	p, err := s.permissions.GetPermission(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return role.Permission{}, errors.NotFound("permission with id = %d does not exist", id)
		}
		return role.Permission{}, err
	}
	return p, nil
}

func (s *Service) ListPermissions(ctx context.Context, opts storage.ListOptions) (query.Result[role.Permission], error) {
	return s.permissions.ListPermissions(ctx, opts)
}

// DeletePermission removes the permission from every role and deletes it.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	if _, err := s.GetPermission(ctx, id); err != nil {
		return err
	}
	return s.permissions.DeletePermission(ctx, id)
}
