package inquiry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/driver"
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
	"github.com/skyvoyage/travelpay/quote"
)

// View is an inquiry with its quotes and the derived effective status. The
// stored status is included for staff tooling, but listings render
// EffectiveStatus.
type View struct {
	Inquiry         *models.Inquiry    `json:"inquiry"`
	Quotes          []*models.Quote    `json:"quotes"`
	EffectiveStatus enum.InquiryStatus `json:"effective_status"`
}

type Service interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	Get(ctx context.Context, id string) (*View, error)
	List(ctx context.Context, limit, offset uint64) ([]*View, error)
	UpdateStatus(ctx context.Context, id string, status enum.InquiryStatus) error
}

type service struct {
	repo               Repository
	quotes             quote.Service
	transactionManager *driver.TransactionManager
	logger             *zap.Logger
}

func NewService(repo Repository, quotes quote.Service, tm *driver.TransactionManager, logger *zap.Logger) Service {
	return &service{
		repo:               repo,
		quotes:             quotes,
		transactionManager: tm,
		logger:             logger,
	}
}

func (s *service) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	if inquiry.Status == "" {
		inquiry.Status = enum.InquiryStatusNew
	}
	if !inquiry.ServiceType.Valid() {
		return fmt.Errorf("%w: unknown service type %q", models.ErrValidation, inquiry.ServiceType)
	}

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, inquiry)
	}); err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}

	s.logger.Info("inquiry created",
		zap.String("inquiry_id", inquiry.ID),
		zap.String("service_type", string(inquiry.ServiceType)))

	return nil
}

func (s *service) Get(ctx context.Context, id string) (*View, error) {
	var inq *models.Inquiry
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		inq, err = s.repo.GetByID(ctx, tx, id)
		return err
	}); err != nil {
		return nil, err
	}

	quotes, err := s.quotes.ListByInquiry(ctx, id)
	if err != nil {
		return nil, err
	}

	return &View{
		Inquiry:         inq,
		Quotes:          quotes,
		EffectiveStatus: EffectiveStatus(inq, quotes),
	}, nil
}

func (s *service) List(ctx context.Context, limit, offset uint64) ([]*View, error) {
	var inquiries []*models.Inquiry
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		inquiries, err = s.repo.List(ctx, tx, limit, offset)
		return err
	}); err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(inquiries))
	for _, inq := range inquiries {
		quotes, err := s.quotes.ListByInquiry(ctx, inq.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &View{
			Inquiry:         inq,
			Quotes:          quotes,
			EffectiveStatus: EffectiveStatus(inq, quotes),
		})
	}

	return views, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status enum.InquiryStatus) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.UpdateStatus(ctx, tx, id, status)
	})
}
