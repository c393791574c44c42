// Package sqlstore implements the storage interfaces on a relational database
// through GORM. MySQL and PostgreSQL are supported; the schema is owned by
// internal/platform/migrations.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

// Store is a GORM backed implementation of the storage interfaces.
type Store struct {
	db      *gorm.DB
	dialect string
}

var (
	_ storage.UserStore         = (*Store)(nil)
	_ storage.CompanyStore      = (*Store)(nil)
	_ storage.SkillStore        = (*Store)(nil)
	_ storage.JobStore          = (*Store)(nil)
	_ storage.ResumeStore       = (*Store)(nil)
	_ storage.SubscriberStore   = (*Store)(nil)
	_ storage.RoleStore         = (*Store)(nil)
	_ storage.PermissionStore   = (*Store)(nil)
	_ storage.NotificationStore = (*Store)(nil)
	_ storage.ChatStore         = (*Store)(nil)
	_ storage.StatsStore        = (*Store)(nil)
)

// New wraps db. The dialect name ("mysql" or "postgres") selects the date
// functions used by reporting queries.
func New(db *gorm.DB) *Store {
	return &Store{db: db, dialect: db.Dialector.Name()}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// mapErr converts driver errors into the storage sentinels.
func mapErr(err error, kind string, key interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %v: %w", kind, key, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %v: %w", kind, key, storage.ErrConflict)
	}
	return fmt.Errorf("%s %v: %w", kind, key, err)
}

// exists returns ErrNotFound when no row of model has id.
func (s *Store) exists(tx *gorm.DB, model interface{}, kind string, id int64) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return mapErr(err, kind, id)
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

// paginate applies the client filter, counts, orders and loads one page.
func paginate[R any](base *gorm.DB, columns map[string]string, opts storage.ListOptions, fallbackOrder string, preloads ...string) ([]R, int64, error) {
	where, args, err := opts.Filter.SQL(columns)
	if err != nil {
		return nil, 0, err
	}
	order, err := opts.Page.OrderSQL(columns, fallbackOrder)
	if err != nil {
		return nil, 0, err
	}

	q := base
	if where != "" {
		q = q.Where(where, args...)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := opts.Page
	if page.Size == 0 {
		page = query.DefaultPage()
	}
	find := q.Session(&gorm.Session{}).Order(order).Limit(page.Size).Offset(page.Offset())
	for _, p := range preloads {
		find = find.Preload(p)
	}
	var recs []R
	if err := find.Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func pageOf(opts storage.ListOptions) query.Page {
	if opts.Page.Size == 0 {
		return query.DefaultPage()
	}
	return opts.Page
}

func mapRecords[R any, T any](recs []R, fn func(R) T) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		out = append(out, fn(r))
	}
	return out
}
