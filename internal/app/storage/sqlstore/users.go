package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

var userColumns = map[string]string{
	"id":           "users.id",
	"name":         "users.name",
	"email":        "users.email",
	"age":          "users.age",
	"gender":       "users.gender",
	"address":      "users.address",
	"active":       "users.active",
	"company.id":   "users.company_id",
	"companyid":    "users.company_id",
	"company.name": "uc.name",
	"role.id":      "users.role_id",
	"roleid":       "users.role_id",
	"role.name":    "ur.name",
	"createdat":    "users.created_at",
	"updatedat":    "users.updated_at",
}

var companyColumns = map[string]string{
	"id":          "companies.id",
	"name":        "companies.name",
	"description": "companies.description",
	"address":     "companies.address",
	"active":      "companies.active",
	"createdat":   "companies.created_at",
	"updatedat":   "companies.updated_at",
}

func (s *Store) loadUser(tx *gorm.DB, where string, arg interface{}) (user.User, error) {
	var rec userRecord
	if err := tx.Preload("Company").Preload("Role").Where(where, arg).First(&rec).Error; err != nil {
		return user.User{}, mapErr(err, "user", arg)
	}
	return rec.domain(), nil
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	rec := toUserRecord(u)
	tx := s.conn(ctx)
	if err := tx.Omit("Company", "Role").Create(&rec).Error; err != nil {
		return user.User{}, mapErr(err, "user", u.Email)
	}
	return s.loadUser(tx, "users.id = ?", rec.ID)
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	rec := toUserRecord(u)
	tx := s.conn(ctx)
	if err := s.exists(tx, &userRecord{}, "user", u.ID); err != nil {
		return user.User{}, err
	}
	if err := tx.Model(&rec).Select("*").Omit("Company", "Role", "CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
		return user.User{}, mapErr(err, "user", u.ID)
	}
	return s.loadUser(tx, "users.id = ?", u.ID)
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	return s.loadUser(s.conn(ctx), "users.id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.loadUser(s.conn(ctx), "users.email = ?", email)
}

func (s *Store) ListUsers(ctx context.Context, opts storage.ListOptions) (query.Result[user.User], error) {
	base := s.conn(ctx).Model(&userRecord{}).
		Joins("LEFT JOIN companies uc ON uc.id = users.company_id").
		Joins("LEFT JOIN roles ur ON ur.id = users.role_id")
	recs, total, err := paginate[userRecord](base, userColumns, opts, "users.id ASC", "Company", "Role")
	if err != nil {
		return query.Result[user.User]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, userRecord.domain)), nil
}

func (s *Store) ListUsersByCompany(ctx context.Context, companyID int64) ([]user.User, error) {
	var recs []userRecord
	if err := s.conn(ctx).Preload("Company").Preload("Role").Where("company_id = ?", companyID).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return mapRecords(recs, userRecord.domain), nil
}

func (s *Store) SetUsersActiveByCompany(ctx context.Context, companyID int64, active bool) (int64, error) {
	res := s.conn(ctx).Model(&userRecord{}).
		Where("company_id = ? AND active <> ?", companyID, active).
		Updates(map[string]interface{}{"active": active})
	return res.RowsAffected, res.Error
}

func (s *Store) CreateCompany(ctx context.Context, c company.Company) (company.Company, error) {
	rec := toCompanyRecord(c)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return company.Company{}, mapErr(err, "company", c.Name)
	}
	return rec.domain(), nil
}

func (s *Store) UpdateCompany(ctx context.Context, c company.Company) (company.Company, error) {
	rec := toCompanyRecord(c)
	tx := s.conn(ctx)
	if err := s.exists(tx, &companyRecord{}, "company", c.ID); err != nil {
		return company.Company{}, err
	}
	if err := tx.Model(&rec).Select("*").Omit("CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
		return company.Company{}, mapErr(err, "company", c.ID)
	}
	return s.GetCompany(ctx, c.ID)
}

func (s *Store) GetCompany(ctx context.Context, id int64) (company.Company, error) {
	var rec companyRecord
	if err := s.conn(ctx).First(&rec, id).Error; err != nil {
		return company.Company{}, mapErr(err, "company", id)
	}
	return rec.domain(), nil
}

func (s *Store) ListCompanies(ctx context.Context, opts storage.ListOptions) (query.Result[company.Company], error) {
	recs, total, err := paginate[companyRecord](s.conn(ctx).Model(&companyRecord{}), companyColumns, opts, "companies.id ASC")
	if err != nil {
		return query.Result[company.Company]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, companyRecord.domain)), nil
}
