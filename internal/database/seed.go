package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

const seedClassCount = 12

var seedSections = []string{"A", "B"}

type seedAccount struct {
	username string
	password string
	role     models.Role
}

var seedAccounts = []seedAccount{
	{username: "teacher1", password: "pass123", role: models.RoleTeacher},
	{username: "admin1", password: "admin123", role: models.RoleAdmin},
}

// Seed inserts bootstrap accounts, classes and two smoke-test students per section A class.
// Each group is only seeded while its table is empty.
func Seed(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	log := logger.With().Str("component", "seed").Logger()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		empty, err := isEmpty(tx, &models.User{})
		if err != nil {
			return err
		}
		if empty {
			for _, account := range seedAccounts {
				hash, err := bcrypt.GenerateFromPassword([]byte(account.password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("hash seed password: %w", err)
				}
				user := models.User{Username: account.username, PasswordHash: string(hash), Role: account.role}
				if err := tx.Create(&user).Error; err != nil {
					return fmt.Errorf("seed user %s: %w", account.username, err)
				}
			}
			log.Info().Int("count", len(seedAccounts)).Msg("seeded users")
		}

		empty, err = isEmpty(tx, &models.Class{})
		if err != nil {
			return err
		}
		if empty {
			classes := make([]models.Class, 0, seedClassCount*len(seedSections))
			for i := 1; i <= seedClassCount; i++ {
				for _, section := range seedSections {
					classes = append(classes, models.Class{ClassName: models.ClassName(fmt.Sprint(i)), Section: section})
				}
			}
			if err := tx.Create(&classes).Error; err != nil {
				return fmt.Errorf("seed classes: %w", err)
			}
			log.Info().Int("count", len(classes)).Msg("seeded classes")
		}

		empty, err = isEmpty(tx, &models.Student{})
		if err != nil {
			return err
		}
		if empty {
			var classes []models.Class
			if err := tx.Where("section = ?", "A").Order("id").Find(&classes).Error; err != nil {
				return fmt.Errorf("load seed classes: %w", err)
			}
			students := make([]models.Student, 0, len(classes)*2)
			for _, class := range classes {
				classID := class.ID
				students = append(students,
					models.Student{RegNo: fmt.Sprintf("REG-%d-1", class.ID), Name: fmt.Sprintf("Student A (%s)", class.ClassName), ClassID: &classID},
					models.Student{RegNo: fmt.Sprintf("REG-%d-2", class.ID), Name: fmt.Sprintf("Student B (%s)", class.ClassName), ClassID: &classID},
				)
			}
			if len(students) > 0 {
				if err := tx.Create(&students).Error; err != nil {
					return fmt.Errorf("seed students: %w", err)
				}
			}
			log.Info().Int("count", len(students)).Msg("seeded students")
		}

		return nil
	})
}

func isEmpty(tx *gorm.DB, model interface{}) (bool, error) {
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
