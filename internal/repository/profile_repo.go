package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// ProfileRepository persists teacher and admin profiles keyed by register id.
type ProfileRepository interface {
	UpsertTeacher(ctx context.Context, profile models.TeacherProfile) (UpsertOutcome, error)
	UpsertAdmin(ctx context.Context, profile models.AdminProfile) (UpsertOutcome, error)
	TeacherByUserID(ctx context.Context, userID uint) (models.TeacherProfile, error)
	AdminByUserID(ctx context.Context, userID uint) (models.AdminProfile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs the repository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) UpsertTeacher(ctx context.Context, profile models.TeacherProfile) (UpsertOutcome, error) {
	updates := map[string]interface{}{
		"name":          profile.Name,
		"main_subject":  profile.MainSubject,
		"class_advisor": profile.ClassAdvisor,
	}
	if profile.UserID != nil {
		updates["user_id"] = profile.UserID
	}
	return upsertByRegisterID(r.db.WithContext(ctx), &models.TeacherProfile{}, profile.RegisterID, updates, &profile)
}

func (r *profileRepository) UpsertAdmin(ctx context.Context, profile models.AdminProfile) (UpsertOutcome, error) {
	updates := map[string]interface{}{
		"name":          profile.Name,
		"main_subject":  profile.MainSubject,
		"class_advisor": profile.ClassAdvisor,
		"role_title":    profile.RoleTitle,
	}
	if profile.UserID != nil {
		updates["user_id"] = profile.UserID
	}
	return upsertByRegisterID(r.db.WithContext(ctx), &models.AdminProfile{}, profile.RegisterID, updates, &profile)
}

func (r *profileRepository) TeacherByUserID(ctx context.Context, userID uint) (models.TeacherProfile, error) {
	var profile models.TeacherProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	return profile, err
}

func (r *profileRepository) AdminByUserID(ctx context.Context, userID uint) (models.AdminProfile, error) {
	var profile models.AdminProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	return profile, err
}

func upsertByRegisterID(db *gorm.DB, model interface{}, registerID string, updates map[string]interface{}, row interface{}) (UpsertOutcome, error) {
	var outcome UpsertOutcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("register_id = ?", registerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			outcome = OutcomeUpdated
			return tx.Model(model).Where("register_id = ?", registerID).Updates(updates).Error
		}
		outcome = OutcomeCreated
		return tx.Create(row).Error
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}
