package repositories

import (
	"strings"
	"time"

	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// DB returns the database instance
func (r *UserRepository) DB() *gorm.DB {
	return r.db
}

// FindByID retrieves a user by its ID
func (r *UserRepository) FindByID(id string) (models.User, error) {
	var user models.User
	result := r.db.First(&user, "id = ?", id)
	return user, result.Error
}

// FindByEmail retrieves a user by its (lower-cased) email
func (r *UserRepository) FindByEmail(email string) (models.User, error) {
	var user models.User
	result := r.db.First(&user, "email = ?", strings.ToLower(email))
	return user, result.Error
}

// EmailTaken reports whether another user already uses email
func (r *UserRepository) EmailTaken(email, exceptID string) (bool, error) {
	var count int64
	db := r.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email))
	if exceptID != "" {
		db = db.Where("id <> ?", exceptID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

// Create inserts a new user into the database
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpdateColumns writes the given columns of a user and reports whether
// the user still exists. Role and activation go through UpdateGuarded.
func (r *UserRepository) UpdateColumns(id string, columns map[string]interface{}) (bool, error) {
	return updateScoped(r.db, &models.User{}, id, "", "", columns)
}

// adminGuard matches rows whose change cannot drop the active-admin count
// to zero: either the row is not an active admin, or another active admin
// remains
func adminGuard(db *gorm.DB, id string) *gorm.DB {
	remaining := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.User{}).
		Select("COUNT(*)").
		Where("role = ? AND is_active = ? AND id <> ?", models.RoleAdmin, true, id)

	return db.Where("id = ?", id).
		Where("(NOT (role = ? AND is_active = ?) OR (?) >= 1)", models.RoleAdmin, true, remaining)
}

// lockActiveAdmins takes row locks on the active admins so concurrent
// guarded statements serialize. sqlite already serializes writers.
func (r *UserRepository) lockActiveAdmins(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	var ids []string
	return tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Pluck("id", &ids).Error
}

// UpdateGuarded applies updates to the user unless that would leave no
// active admin. It reports whether a row was changed.
func (r *UserRepository) UpdateGuarded(id string, updates map[string]interface{}) (bool, error) {
	var changed bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.lockActiveAdmins(tx); err != nil {
			return err
		}
		result := adminGuard(tx.Model(&models.User{}), id).Updates(updates)
		changed = result.RowsAffected > 0
		return result.Error
	})
	return changed, err
}

// DeleteGuarded removes the user unless it is the last active admin. It
// must run inside the caller's transaction.
func (r *UserRepository) DeleteGuarded(id string) (bool, error) {
	if err := r.lockActiveAdmins(r.db); err != nil {
		return false, err
	}
	result := adminGuard(r.db, id).Delete(&models.User{})
	return result.RowsAffected > 0, result.Error
}

// FindWithPagination retrieves users with pagination, filtering and search
func (r *UserRepository) FindWithPagination(filter dto.UserFilter) ([]models.User, int64, error) {
	var users []models.User
	var totalCount int64

	db := r.db.Model(&models.User{})

	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", searchPattern, searchPattern)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&users).Error
	return users, totalCount, err
}

// FindAll returns every user, newest first
func (r *UserRepository) FindAll() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Find(&users).Error
	return users, err
}

// CountActive counts users with the active flag set
func (r *UserRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// CountInactive counts deactivated users
func (r *UserRepository) CountInactive() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("is_active = ?", false).Count(&count).Error
	return count, err
}

// CountActiveAdmins counts admins able to sign in
func (r *UserRepository) CountActiveAdmins() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Count(&count).Error
	return count, err
}

// CountCreatedBetween counts users registered in [from, to]; activeOnly
// restricts the count to active accounts
func (r *UserRepository) CountCreatedBetween(from, to time.Time, activeOnly bool) (int64, error) {
	var count int64
	db := r.db.Model(&models.User{}).Where("created_at >= ? AND created_at <= ?", from, to)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Count(&count).Error
	return count, err
}

// CountActiveByRole returns the active user distribution by role
func (r *UserRepository) CountActiveByRole() ([]dto.RoleCount, error) {
	var rows []struct {
		Role  models.Role
		Count int64
	}
	err := r.db.Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("role").
		Order("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]dto.RoleCount, len(rows))
	for i, row := range rows {
		counts[i] = dto.RoleCount{Role: row.Role, Count: row.Count}
	}
	return counts, nil
}
