package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// UserRepository persists login accounts.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Register(ctx context.Context, user *models.User, student *StudentEnrollment) error
}

// StudentEnrollment links a newly registered student account to a class roster entry.
type StudentEnrollment struct {
	RegNo string
	Class ClassKey
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the repository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	return user, err
}

// Register creates the user and, for students, the linked student row in one transaction.
// A taken username or reg_no surfaces as gorm.ErrDuplicatedKey.
func (r *userRepository) Register(ctx context.Context, user *models.User, enrollment *StudentEnrollment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if enrollment == nil {
			return nil
		}

		classID, err := resolveClass(tx, enrollment.Class.Name, enrollment.Class.Section)
		if err != nil {
			return err
		}
		userID := user.ID
		student := models.Student{
			RegNo:   enrollment.RegNo,
			Name:    user.Username,
			ClassID: &classID,
			UserID:  &userID,
		}
		return tx.Create(&student).Error
	})
}
