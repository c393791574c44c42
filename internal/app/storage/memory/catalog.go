package memory

import (
	"context"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

// SkillStore implementation ---------------------------------------------------

func (s *Store) CreateSkill(_ context.Context, sk skill.Skill) (skill.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skillNameTakenLocked(sk.Name, 0) {
		return skill.Skill{}, conflict("skill %s", sk.Name)
	}
	sk.ID = s.nextIDLocked("skills")
	sk.CreatedAt = now()
	sk.UpdatedAt = sk.CreatedAt
	s.skills[sk.ID] = sk
	return sk, nil
}

func (s *Store) UpdateSkill(_ context.Context, sk skill.Skill) (skill.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.skills[sk.ID]
	if !ok {
		return skill.Skill{}, notFound("skill", sk.ID)
	}
	if s.skillNameTakenLocked(sk.Name, sk.ID) {
		return skill.Skill{}, conflict("skill %s", sk.Name)
	}
	sk.CreatedAt = original.CreatedAt
	sk.CreatedBy = original.CreatedBy
	sk.UpdatedAt = now()
	s.skills[sk.ID] = sk
	return sk, nil
}

func (s *Store) skillNameTakenLocked(name string, exceptID int64) bool {
	for _, existing := range s.skills {
		if existing.ID != exceptID && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) GetSkill(_ context.Context, id int64) (skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.skills[id]
	if !ok {
		return skill.Skill{}, notFound("skill", id)
	}
	return sk, nil
}

func (s *Store) GetSkillByName(_ context.Context, name string) (skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sk := range s.skills {
		if strings.EqualFold(sk.Name, name) {
			return sk, nil
		}
	}
	return skill.Skill{}, notFound("skill", name)
}

func (s *Store) ListSkills(_ context.Context, opts storage.ListOptions) (query.Result[skill.Skill], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return query.Apply(sortedValues(s.skills), opts.Filter, opts.Page, skillFields)
}

func (s *Store) ListSkillsByIDs(_ context.Context, ids []int64) ([]skill.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.skillsByIDsLocked(ids), nil
}

func (s *Store) skillsByIDsLocked(ids []int64) []skill.Skill {
	out := make([]skill.Skill, 0, len(ids))
	for _, id := range ids {
		if sk, ok := s.skills[id]; ok {
			out = append(out, sk)
		}
	}
	return out
}

func (s *Store) DeleteSkill(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.skills[id]; !ok {
		return notFound("skill", id)
	}
	for jid, j := range s.jobs {
		j.Skills = withoutSkill(j.Skills, id)
		s.jobs[jid] = j
	}
	for sid, sub := range s.subscribers {
		sub.Skills = withoutSkill(sub.Skills, id)
		s.subscribers[sid] = sub
	}
	delete(s.skills, id)
	return nil
}

func withoutSkill(skills []skill.Skill, id int64) []skill.Skill {
	out := skills[:0:0]
	for _, sk := range skills {
		if sk.ID != id {
			out = append(out, sk)
		}
	}
	return out
}

func skillFields(sk skill.Skill) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return sk.ID, true
		case "name":
			return sk.Name, true
		case "createdat":
			return sk.CreatedAt, true
		case "updatedat":
			return sk.UpdatedAt, true
		}
		return nil, false
	}
}

// RoleStore implementation ----------------------------------------------------

func (s *Store) CreateRole(_ context.Context, r role.Role) (role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roleNameTakenLocked(r.Name, 0) {
		return role.Role{}, conflict("role %s", r.Name)
	}
	r.ID = s.nextIDLocked("roles")
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	r.Permissions = idsOnly(r.Permissions)
	s.roles[r.ID] = r
	return s.hydrateRoleLocked(r), nil
}

func (s *Store) UpdateRole(_ context.Context, r role.Role) (role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.roles[r.ID]
	if !ok {
		return role.Role{}, notFound("role", r.ID)
	}
	if s.roleNameTakenLocked(r.Name, r.ID) {
		return role.Role{}, conflict("role %s", r.Name)
	}
	r.CreatedAt = original.CreatedAt
	r.CreatedBy = original.CreatedBy
	r.UpdatedAt = now()
	r.Permissions = idsOnly(r.Permissions)
	s.roles[r.ID] = r
	return s.hydrateRoleLocked(r), nil
}

func (s *Store) roleNameTakenLocked(name string, exceptID int64) bool {
	for _, existing := range s.roles {
		if existing.ID != exceptID && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

func idsOnly(perms []role.Permission) []role.Permission {
	out := make([]role.Permission, 0, len(perms))
	for _, p := range perms {
		out = append(out, role.Permission{ID: p.ID})
	}
	return out
}

func (s *Store) hydrateRoleLocked(r role.Role) role.Role {
	perms := make([]role.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if full, ok := s.permissions[p.ID]; ok {
			perms = append(perms, full)
		}
	}
	r.Permissions = perms
	return r
}

func (s *Store) GetRole(_ context.Context, id int64) (role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[id]
	if !ok {
		return role.Role{}, notFound("role", id)
	}
	return s.hydrateRoleLocked(r), nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.roles {
		if strings.EqualFold(r.Name, name) {
			return s.hydrateRoleLocked(r), nil
		}
	}
	return role.Role{}, notFound("role", name)
}

func (s *Store) ListRoles(_ context.Context, opts storage.ListOptions) (query.Result[role.Role], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]role.Role, 0, len(s.roles))
	for _, r := range sortedValues(s.roles) {
		items = append(items, s.hydrateRoleLocked(r))
	}
	return query.Apply(items, opts.Filter, opts.Page, roleFields)
}

func (s *Store) DeleteRole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return notFound("role", id)
	}
	for uid, u := range s.users {
		if u.RoleID != nil && *u.RoleID == id {
			u.RoleID = nil
			s.users[uid] = u
		}
	}
	delete(s.roles, id)
	return nil
}

func roleFields(r role.Role) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return r.ID, true
		case "name":
			return r.Name, true
		case "description":
			return r.Description, true
		case "active":
			return r.Active, true
		case "createdat":
			return r.CreatedAt, true
		case "updatedat":
			return r.UpdatedAt, true
		}
		return nil, false
	}
}

// PermissionStore implementation ----------------------------------------------

func (s *Store) CreatePermission(_ context.Context, p role.Permission) (role.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.permissionTakenLocked(p, 0) {
		return role.Permission{}, conflict("permission %s %s", p.Method, p.APIPath)
	}
	p.ID = s.nextIDLocked("permissions")
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	s.permissions[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePermission(_ context.Context, p role.Permission) (role.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.permissions[p.ID]
	if !ok {
		return role.Permission{}, notFound("permission", p.ID)
	}
	if s.permissionTakenLocked(p, p.ID) {
		return role.Permission{}, conflict("permission %s %s", p.Method, p.APIPath)
	}
	p.CreatedAt = original.CreatedAt
	p.CreatedBy = original.CreatedBy
	p.UpdatedAt = now()
	s.permissions[p.ID] = p
	return p, nil
}

func (s *Store) permissionTakenLocked(p role.Permission, exceptID int64) bool {
	for _, existing := range s.permissions {
		if existing.ID != exceptID && existing.APIPath == p.APIPath && existing.Method == p.Method {
			return true
		}
	}
	return false
}

func (s *Store) GetPermission(_ context.Context, id int64) (role.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.permissions[id]
	if !ok {
		return role.Permission{}, notFound("permission", id)
	}
	return p, nil
}

func (s *Store) FindPermission(_ context.Context, apiPath, method string) (role.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.permissions {
		if p.APIPath == apiPath && p.Method == method {
			return p, nil
		}
	}
	return role.Permission{}, notFound("permission", method+" "+apiPath)
}

func (s *Store) ListPermissions(_ context.Context, opts storage.ListOptions) (query.Result[role.Permission], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return query.Apply(sortedValues(s.permissions), opts.Filter, opts.Page, permissionFields)
}

func (s *Store) ListPermissionsByIDs(_ context.Context, ids []int64) ([]role.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]role.Permission, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.permissions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DeletePermission(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.permissions[id]; !ok {
		return notFound("permission", id)
	}
	for rid, r := range s.roles {
		kept := r.Permissions[:0:0]
		for _, p := range r.Permissions {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		r.Permissions = kept
		s.roles[rid] = r
	}
	delete(s.permissions, id)
	return nil
}

func permissionFields(p role.Permission) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return p.ID, true
		case "name":
			return p.Name, true
		case "apipath":
			return p.APIPath, true
		case "method":
			return p.Method, true
		case "module":
			return p.Module, true
		case "createdat":
			return p.CreatedAt, true
		case "updatedat":
			return p.UpdatedAt, true
		}
		return nil, false
	}
}
