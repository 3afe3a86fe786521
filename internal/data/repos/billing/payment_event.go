package billing

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type PaymentEventRepo interface {
	// CreateIfAbsent records a delivery unless (provider, provider_event_id)
	// was already seen.
	CreateIfAbsent(dbc dbctx.Context, row *types.PaymentEvent) (created bool, err error)
	GetByProviderEventID(dbc dbctx.Context, provider, eventID string) (*types.PaymentEvent, error)
	Save(dbc dbctx.Context, row *types.PaymentEvent) error
	ListByStatus(dbc dbctx.Context, status string, limit int) ([]*types.PaymentEvent, error)
}

type paymentEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentEventRepo(db *gorm.DB, baseLog *logger.Logger) PaymentEventRepo {
	repoLog := baseLog.With("repo", "PaymentEventRepo")
	return &paymentEventRepo{db: db, log: repoLog}
}

func (r *paymentEventRepo) CreateIfAbsent(dbc dbctx.Context, row *types.PaymentEvent) (bool, error) {
	if row == nil {
		return false, errors.New("payment event required")
	}
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentEventRepo) GetByProviderEventID(dbc dbctx.Context, provider, eventID string) (*types.PaymentEvent, error) {
	provider = strings.TrimSpace(provider)
	eventID = strings.TrimSpace(eventID)
	if provider == "" || eventID == "" {
		return nil, nil
	}
	var row types.PaymentEvent
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *paymentEventRepo) Save(dbc dbctx.Context, row *types.PaymentEvent) error {
	if row == nil || row.ID == uuid.Nil {
		return errors.New("persisted payment event required")
	}
	return dbc.Or(r.db).WithContext(dbc.Ctx).Save(row).Error
}

func (r *paymentEventRepo) ListByStatus(dbc dbctx.Context, status string, limit int) ([]*types.PaymentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.PaymentEvent
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("status = ?", status).
		Order("updated_at ASC").Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
