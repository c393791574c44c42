package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

var skillColumns = map[string]string{
	"id":        "skills.id",
	"name":      "skills.name",
	"createdat": "skills.created_at",
	"updatedat": "skills.updated_at",
}

var roleColumns = map[string]string{
	"id":          "roles.id",
	"name":        "roles.name",
	"description": "roles.description",
	"active":      "roles.active",
	"createdat":   "roles.created_at",
	"updatedat":   "roles.updated_at",
}

var permissionColumns = map[string]string{
	"id":        "permissions.id",
	"name":      "permissions.name",
	"apipath":   "permissions.api_path",
	"method":    "permissions.method",
	"module":    "permissions.module",
	"createdat": "permissions.created_at",
	"updatedat": "permissions.updated_at",
}

// Skills ----------------------------------------------------------------------

func (s *Store) CreateSkill(ctx context.Context, sk skill.Skill) (skill.Skill, error) {
	rec := toSkillRecord(sk)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return skill.Skill{}, mapErr(err, "skill", sk.Name)
	}
	return rec.domain(), nil
}

func (s *Store) UpdateSkill(ctx context.Context, sk skill.Skill) (skill.Skill, error) {
	rec := toSkillRecord(sk)
	tx := s.conn(ctx)
	if err := s.exists(tx, &skillRecord{}, "skill", sk.ID); err != nil {
		return skill.Skill{}, err
	}
	if err := tx.Model(&rec).Select("*").Omit("CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
		return skill.Skill{}, mapErr(err, "skill", sk.Name)
	}
	return s.GetSkill(ctx, sk.ID)
}

func (s *Store) GetSkill(ctx context.Context, id int64) (skill.Skill, error) {
	var rec skillRecord
	if err := s.conn(ctx).First(&rec, id).Error; err != nil {
		return skill.Skill{}, mapErr(err, "skill", id)
	}
	return rec.domain(), nil
}

func (s *Store) GetSkillByName(ctx context.Context, name string) (skill.Skill, error) {
	var rec skillRecord
	if err := s.conn(ctx).Where("LOWER(name) = LOWER(?)", name).First(&rec).Error; err != nil {
		return skill.Skill{}, mapErr(err, "skill", name)
	}
	return rec.domain(), nil
}

func (s *Store) ListSkills(ctx context.Context, opts storage.ListOptions) (query.Result[skill.Skill], error) {
	recs, total, err := paginate[skillRecord](s.conn(ctx).Model(&skillRecord{}), skillColumns, opts, "skills.id ASC")
	if err != nil {
		return query.Result[skill.Skill]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, skillRecord.domain)), nil
}

func (s *Store) ListSkillsByIDs(ctx context.Context, ids []int64) ([]skill.Skill, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []skillRecord
	if err := s.conn(ctx).Where("id IN ?", ids).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return skillsOf(recs), nil
}

func (s *Store) DeleteSkill(ctx context.Context, id int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &skillRecord{}, "skill", id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM job_skill WHERE skill_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM subscriber_skill WHERE skill_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&skillRecord{}, id).Error
	})
}

// Roles -----------------------------------------------------------------------

func (s *Store) CreateRole(ctx context.Context, r role.Role) (role.Role, error) {
	rec := toRoleRecord(r)
	perms := rec.Permissions
	rec.Permissions = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return mapErr(err, "role", r.Name)
		}
		if len(perms) == 0 {
			return nil
		}
		return tx.Model(&rec).Association("Permissions").Replace(perms)
	})
	if err != nil {
		return role.Role{}, err
	}
	return s.GetRole(ctx, rec.ID)
}

func (s *Store) UpdateRole(ctx context.Context, r role.Role) (role.Role, error) {
	rec := toRoleRecord(r)
	perms := rec.Permissions
	rec.Permissions = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &roleRecord{}, "role", r.ID); err != nil {
			return err
		}
		if err := tx.Model(&rec).Select("*").Omit("Permissions", "CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
			return mapErr(err, "role", r.Name)
		}
		return tx.Model(&rec).Association("Permissions").Replace(perms)
	})
	if err != nil {
		return role.Role{}, err
	}
	return s.GetRole(ctx, r.ID)
}

func (s *Store) GetRole(ctx context.Context, id int64) (role.Role, error) {
	var rec roleRecord
	if err := s.conn(ctx).Preload("Permissions").First(&rec, id).Error; err != nil {
		return role.Role{}, mapErr(err, "role", id)
	}
	return rec.domain(), nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (role.Role, error) {
	var rec roleRecord
	if err := s.conn(ctx).Preload("Permissions").Where("name = ?", name).First(&rec).Error; err != nil {
		return role.Role{}, mapErr(err, "role", name)
	}
	return rec.domain(), nil
}

func (s *Store) ListRoles(ctx context.Context, opts storage.ListOptions) (query.Result[role.Role], error) {
	recs, total, err := paginate[roleRecord](s.conn(ctx).Model(&roleRecord{}), roleColumns, opts, "roles.id ASC", "Permissions")
	if err != nil {
		return query.Result[role.Role]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, roleRecord.domain)), nil
}

func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &roleRecord{}, "role", id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM permission_role WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&userRecord{}).Where("role_id = ?", id).Update("role_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&roleRecord{}, id).Error
	})
}

// Permissions -----------------------------------------------------------------

func (s *Store) CreatePermission(ctx context.Context, p role.Permission) (role.Permission, error) {
	rec := toPermissionRecord(p)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return role.Permission{}, mapErr(err, "permission", p.Method+" "+p.APIPath)
	}
	return rec.domain(), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p role.Permission) (role.Permission, error) {
	rec := toPermissionRecord(p)
	tx := s.conn(ctx)
	if err := s.exists(tx, &permissionRecord{}, "permission", p.ID); err != nil {
		return role.Permission{}, err
	}
	if err := tx.Model(&rec).Select("*").Omit("CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
		return role.Permission{}, mapErr(err, "permission", p.Method+" "+p.APIPath)
	}
	return s.GetPermission(ctx, p.ID)
}

func (s *Store) GetPermission(ctx context.Context, id int64) (role.Permission, error) {
	var rec permissionRecord
	if err := s.conn(ctx).First(&rec, id).Error; err != nil {
		return role.Permission{}, mapErr(err, "permission", id)
	}
	return rec.domain(), nil
}

func (s *Store) FindPermission(ctx context.Context, apiPath, method string) (role.Permission, error) {
	var rec permissionRecord
	if err := s.conn(ctx).Where("api_path = ? AND method = ?", apiPath, method).First(&rec).Error; err != nil {
		return role.Permission{}, mapErr(err, "permission", method+" "+apiPath)
	}
	return rec.domain(), nil
}

func (s *Store) ListPermissions(ctx context.Context, opts storage.ListOptions) (query.Result[role.Permission], error) {
	recs, total, err := paginate[permissionRecord](s.conn(ctx).Model(&permissionRecord{}), permissionColumns, opts, "permissions.id ASC")
	if err != nil {
		return query.Result[role.Permission]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, permissionRecord.domain)), nil
}

func (s *Store) ListPermissionsByIDs(ctx context.Context, ids []int64) ([]role.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []permissionRecord
	if err := s.conn(ctx).Where("id IN ?", ids).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return mapRecords(recs, permissionRecord.domain), nil
}

func (s *Store) DeletePermission(ctx context.Context, id int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &permissionRecord{}, "permission", id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM permission_role WHERE permission_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&permissionRecord{}, id).Error
	})
}
