package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/database"
	"github.com/nimeshabuddhika/account-service-go/pkg/models"
	"github.com/nimeshabuddhika/account-service-go/pkg/repositories"
	"github.com/nimeshabuddhika/account-service-go/pkg/utils"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	"go.uber.org/zap"
)

// AccountService owns validation and persistence of accounts.
type AccountService interface {
	CreateAccount(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error)
	GetAccountById(ctx context.Context, traceId string, id int64) (views.AccountResponse, error)
	UpdateAccount(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error)
	DeleteAccount(ctx context.Context, traceId string, id int64) error
	ListAccounts(ctx context.Context, traceId string) ([]views.AccountResponse, error)
}

type AccountServiceImpl struct {
	logger    *zap.Logger
	db        database.Store
	repo      repositories.AccountRepository
	publisher EventPublisher
	validate  *validator.Validate
}

func NewAccountService(logger *zap.Logger, db database.Store, repo repositories.AccountRepository, publisher EventPublisher) AccountService {
	// Reuse the binding tags of the request views so the store enforces the
	// same rules for non-HTTP callers (e.g. the seeder).
	validate := validator.New()
	validate.SetTagName("binding")
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AccountServiceImpl{
		logger:    logger,
		db:        db,
		repo:      repo,
		publisher: publisher,
		validate:  validate,
	}
}

// CreateAccount validates the payload, defaults date_joined to today when absent,
// and inserts the account. The assigned id comes back from the database.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, traceId string, req views.AccountRequest) (views.AccountResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return views.AccountResponse{}, err
	}
	account, err := buildAccount(req)
	if err != nil {
		return views.AccountResponse{}, err
	}

	var created models.Account
	err = s.db.WithTransaction(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var txErr error
		created, txErr = s.repo.Create(txCtx, tx, account)
		return txErr
	})
	if err != nil {
		return views.AccountResponse{}, pkg.HandleSQLError(traceId, s.logger, err)
	}

	view := created.ToView()
	s.logger.Info("account_created", zap.String(pkg.TraceId, traceId), zap.Int64("account_id", created.ID))
	s.publishEvent(traceId, pkg.AccountCreated, view)
	return view, nil
}

func (s *AccountServiceImpl) GetAccountById(ctx context.Context, traceId string, id int64) (views.AccountResponse, error) {
	account, err := s.repo.FindById(ctx, s.db, id)
	if err != nil {
		return views.AccountResponse{}, pkg.HandleSQLError(traceId, s.logger, err)
	}
	return account.ToView(), nil
}

// UpdateAccount replaces name, email, address and phone_number of an existing
// account. id and date_joined never change; a date_joined value in the payload
// is ignored.
func (s *AccountServiceImpl) UpdateAccount(ctx context.Context, traceId string, id int64, req views.AccountRequest) (views.AccountResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return views.AccountResponse{}, err
	}
	account := models.Account{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}

	var updated models.Account
	err := s.db.WithTransaction(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var txErr error
		updated, txErr = s.repo.Update(txCtx, tx, account)
		return txErr
	})
	if err != nil {
		return views.AccountResponse{}, pkg.HandleSQLError(traceId, s.logger, err)
	}

	view := updated.ToView()
	s.logger.Info("account_updated", zap.String(pkg.TraceId, traceId), zap.Int64("account_id", updated.ID))
	s.publishEvent(traceId, pkg.AccountUpdated, view)
	return view, nil
}

// DeleteAccount removes the account by id. Deleting an absent account is a
// successful no-op.
func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, traceId string, id int64) error {
	var rows int64
	err := s.db.WithTransaction(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var txErr error
		rows, txErr = s.repo.Delete(txCtx, tx, id)
		return txErr
	})
	if err != nil {
		return pkg.HandleSQLError(traceId, s.logger, err)
	}
	if rows == 0 {
		s.logger.Debug("account_already_absent", zap.String(pkg.TraceId, traceId), zap.Int64("account_id", id))
		return nil
	}

	s.logger.Info("account_deleted", zap.String(pkg.TraceId, traceId), zap.Int64("account_id", id))
	s.publishEvent(traceId, pkg.AccountDeleted, views.AccountResponse{ID: id})
	return nil
}

func (s *AccountServiceImpl) ListAccounts(ctx context.Context, traceId string) ([]views.AccountResponse, error) {
	accounts, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, pkg.HandleSQLError(traceId, s.logger, err)
	}
	out := make([]views.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account.ToView())
	}
	return out, nil
}

func (s *AccountServiceImpl) validateRequest(req views.AccountRequest) error {
	err := s.validate.Struct(&req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("invalid account payload: %s", strings.Join(fields, ", ")), err)
	}
	return pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid account payload", err)
}

func (s *AccountServiceImpl) publishEvent(traceId string, eventType pkg.AccountEventType, account views.AccountResponse) {
	if err := s.publisher.PublishAccountEvent(traceId, eventType, account); err != nil {
		s.logger.Error("failed_to_publish_account_event",
			zap.String(pkg.TraceId, traceId),
			zap.String("type", string(eventType)),
			zap.Int64("account_id", account.ID),
			zap.Error(err),
		)
	}
}

// buildAccount maps a request to a model, defaulting date_joined to the current
// server date when the payload omits it.
func buildAccount(req views.AccountRequest) (models.Account, error) {
	dateJoined := time.Now()
	if !utils.IsEmpty(req.DateJoined) {
		parsed, err := time.Parse(views.DateLayout, req.DateJoined)
		if err != nil {
			return models.Account{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "date_joined must be formatted YYYY-MM-DD", err)
		}
		dateJoined = parsed
	}
	return models.Account{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		DateJoined:  dateJoined,
	}, nil
}
