package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// FeeService manages the fee ledger.
type FeeService interface {
	Create(ctx context.Context, actor Actor, req dto.FeeCreateRequest) (models.Fee, error)
	List(ctx context.Context, actor Actor, query dto.FeeListQuery) ([]models.Fee, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.FeeUpdateRequest) (models.Fee, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type feeService struct {
	fees      repository.FeeRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFeeService constructs the fee service.
func NewFeeService(fees repository.FeeRepository, students repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) FeeService {
	return &feeService{
		fees:      fees,
		students:  students,
		validator: validate,
		logger:    logger.With().Str("component", "fee_service").Logger(),
	}
}

// Create appends a payment for an enrolled student. Name and class come from the roster.
func (s *feeService) Create(ctx context.Context, actor Actor, req dto.FeeCreateRequest) (models.Fee, error) {
	if err := actor.requireAdmin(); err != nil {
		return models.Fee{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Fee{}, classify(err, "")
	}

	student, err := s.students.GetByRegNo(ctx, req.RegNo)
	if err != nil {
		return models.Fee{}, classify(err, "student not found")
	}
	if student.ClassID == nil {
		return models.Fee{}, validationError("student is not assigned to a class")
	}

	fee := models.Fee{
		StudentName:   student.Name,
		RegNo:         student.RegNo,
		Month:         strings.TrimSpace(req.Month),
		PaymentDate:   req.PaymentDate,
		PaymentMode:   strings.TrimSpace(req.PaymentMode),
		BalanceAmount: req.BalanceAmount,
		ClassID:       *student.ClassID,
	}
	if err := s.fees.Create(ctx, &fee); err != nil {
		return models.Fee{}, classify(err, "")
	}

	s.logger.Info().Uint("fee_id", fee.ID).Str("reg_no", fee.RegNo).Msg("fee recorded")
	return fee, nil
}

func (s *feeService) List(ctx context.Context, actor Actor, query dto.FeeListQuery) ([]models.Fee, error) {
	filter := repository.FeeFilter{ClassID: query.ClassID, Month: query.Month, RegNo: query.RegNo}
	if actor.Role == models.RoleStudent {
		own, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, classify(err, "no student record is linked to this account")
		}
		filter = repository.FeeFilter{RegNo: own.RegNo, Month: query.Month}
	}

	fees, err := s.fees.List(ctx, filter)
	if err != nil {
		return nil, classify(err, "")
	}
	if fees == nil {
		fees = []models.Fee{}
	}
	return fees, nil
}

func (s *feeService) Update(ctx context.Context, actor Actor, id uint, req dto.FeeUpdateRequest) (models.Fee, error) {
	if err := actor.requireAdmin(); err != nil {
		return models.Fee{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Fee{}, classify(err, "")
	}

	updates := map[string]interface{}{}
	if req.Month != nil {
		updates["month"] = strings.TrimSpace(*req.Month)
	}
	if req.PaymentDate != nil {
		updates["payment_date"] = *req.PaymentDate
	}
	if req.PaymentMode != nil {
		updates["payment_mode"] = strings.TrimSpace(*req.PaymentMode)
	}
	if req.BalanceAmount != nil {
		updates["balance_amount"] = *req.BalanceAmount
	}
	if len(updates) == 0 {
		return models.Fee{}, validationError("no fields to update")
	}

	fee, err := s.fees.Update(ctx, id, updates)
	if err != nil {
		return models.Fee{}, classify(err, "fee not found")
	}
	return fee, nil
}

func (s *feeService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	return classify(s.fees.Delete(ctx, id), "fee not found")
}
