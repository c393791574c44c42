package roles

import (
	"context"
	"fmt"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/security"
)

// Admin is the account created when the user table is empty.
type Admin struct {
	Email    string
	Password string
}

// SeedReport counts what Seed created.
type SeedReport struct {
	Permissions int
	Roles       int
	Admin       bool
}

// Modules granted to recruiters, and to candidates for read and write calls
// on their own data.
var (
	recruiterModules = map[string]bool{"COMPANIES": true, "JOBS": true, "RESUMES": true, "SKILLS": true, "FILES": true, "DASHBOARD": true, "NOTIFICATIONS": true}
	candidateModules = map[string]bool{"RESUMES": true, "SUBSCRIBERS": true, "FILES": true, "NOTIFICATIONS": true, "CHATBOT": true}
)

const seedBy = "system"

// Seed creates missing catalogue permissions, the three built-in roles and,
// on an empty user table, the bootstrap administrator. Running it twice is
// harmless.
func (s *Service) Seed(ctx context.Context, catalogue []role.Permission, admin Admin) (SeedReport, error) {
	var report SeedReport

	all := make([]role.Permission, 0, len(catalogue))
	for _, p := range catalogue {
		existing, err := s.permissions.FindPermission(ctx, p.APIPath, p.Method)
		if err == nil {
			all = append(all, existing)
			continue
		}
		if !storage.IsNotFound(err) {
			return report, err
		}
		p.CreatedBy = seedBy
		created, err := s.permissions.CreatePermission(ctx, p)
		if err != nil {
			return report, fmt.Errorf("seed permission %s %s: %w", p.Method, p.APIPath, err)
		}
		all = append(all, created)
		report.Permissions++
	}

	builtins := []role.Role{
		{Name: role.SuperAdmin, Description: "full access", Active: true, Permissions: all},
		{Name: role.HR, Description: "recruiter of one company", Active: true, Permissions: pick(all, recruiterModules, false)},
		{Name: role.User, Description: "candidate", Active: true, Permissions: pick(all, candidateModules, true)},
	}
	var superAdmin role.Role
	for _, r := range builtins {
		existing, err := s.roles.GetRoleByName(ctx, r.Name)
		switch {
		case err == nil:
			if r.Name == role.SuperAdmin && len(existing.Permissions) < len(all) {
				existing.Permissions = all
				if existing, err = s.roles.UpdateRole(ctx, existing); err != nil {
					return report, err
				}
			}
		case storage.IsNotFound(err):
			r.CreatedBy = seedBy
			if existing, err = s.roles.CreateRole(ctx, r); err != nil {
				return report, fmt.Errorf("seed role %s: %w", r.Name, err)
			}
			report.Roles++
		default:
			return report, err
		}
		if existing.Name == role.SuperAdmin {
			superAdmin = existing
		}
	}

	if admin.Email == "" {
		return report, nil
	}
	page, err := s.users.ListUsers(ctx, storage.ListOptions{Page: query.Page{Number: 1, Size: 1}})
	if err != nil {
		return report, err
	}
	if page.Meta.Total > 0 {
		return report, nil
	}
	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return report, fmt.Errorf("seed admin: %w", err)
	}
	if _, err := s.users.CreateUser(ctx, user.User{
		Name:         "Super Admin",
		Email:        admin.Email,
		PasswordHash: hash,
		Gender:       user.GenderOther,
		Active:       true,
		RoleID:       &superAdmin.ID,
		CreatedBy:    seedBy,
	}); err != nil {
		return report, fmt.Errorf("seed admin: %w", err)
	}
	report.Admin = true

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"permissions": report.Permissions,
		"roles":       report.Roles,
		"admin":       admin.Email,
	}).Info("seeded an empty database")
	return report, nil
}

func pick(all []role.Permission, modules map[string]bool, readWriteOnly bool) []role.Permission {
	var out []role.Permission
	for _, p := range all {
		if !modules[p.Module] {
			continue
		}
		if readWriteOnly && p.Method != "GET" && p.Method != "POST" {
			continue
		}
		out = append(out, p)
	}
	return out
}
