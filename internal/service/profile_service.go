package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// ProfileService resolves the caller's own profile.
type ProfileService interface {
	Me(ctx context.Context, actor Actor) (dto.ProfileResponse, error)
}

type profileService struct {
	students repository.StudentRepository
	profiles repository.ProfileRepository
	logger   zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(students repository.StudentRepository, profiles repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		students: students,
		profiles: profiles,
		logger:   logger.With().Str("component", "profile_service").Logger(),
	}
}

// Me returns the account together with its role profile. A missing profile is not an error.
func (s *profileService) Me(ctx context.Context, actor Actor) (dto.ProfileResponse, error) {
	response := dto.ProfileResponse{
		User: dto.UserResponse{ID: actor.UserID, Username: actor.Username, Role: actor.Role},
	}

	var err error
	switch actor.Role {
	case models.RoleStudent:
		var profile models.StudentProfile
		if profile, err = s.students.ProfileByUserID(ctx, actor.UserID); err == nil {
			response.Student = &profile
		}
	case models.RoleTeacher:
		var profile models.TeacherProfile
		if profile, err = s.profiles.TeacherByUserID(ctx, actor.UserID); err == nil {
			response.Teacher = &profile
		}
	case models.RoleAdmin:
		var profile models.AdminProfile
		if profile, err = s.profiles.AdminByUserID(ctx, actor.UserID); err == nil {
			response.Admin = &profile
		}
	default:
		return dto.ProfileResponse{}, forbiddenError("unknown role")
	}

	if err != nil {
		classified := classify(err, "")
		if !errors.Is(classified, ErrNotFound) {
			return dto.ProfileResponse{}, classified
		}
	}
	return response, nil
}
