package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PartnerInput holds the fields for creating or updating a partner.
type PartnerInput struct {
	Name                  string
	Contact               string
	Phone                 string
	Address               string
	DefaultCommissionRate decimal.Decimal
}

// PartnerService provides partner master data operations. Partners are never
// deleted in the current scope.
type PartnerService interface {
	CreatePartner(ctx context.Context, input PartnerInput) (*Partner, error)
	UpdatePartner(ctx context.Context, id string, input PartnerInput) (*Partner, error)
	GetPartner(ctx context.Context, id string) (*Partner, error)
	GetPartners(ctx context.Context) ([]Partner, error)
}

type partnerService struct {
	pool *pgxpool.Pool
}

func NewPartnerService(pool *pgxpool.Pool) PartnerService {
	return &partnerService{pool: pool}
}

const partnerColumns = "id, name, contact, phone, address, default_commission_rate, create_at"

func scanPartner(row pgx.Row) (*Partner, error) {
	var p Partner
	err := row.Scan(&p.ID, &p.Name, &p.Contact, &p.Phone, &p.Address, &p.DefaultCommissionRate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validatePartnerInput(input PartnerInput) error {
	if input.Name == "" {
		return fmt.Errorf("partner name is required: %w", ErrValidation)
	}
	if input.DefaultCommissionRate.IsNegative() || input.DefaultCommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("commission rate must be between 0 and 100, got %s: %w",
			input.DefaultCommissionRate, ErrValidation)
	}
	return nil
}

func (s *partnerService) CreatePartner(ctx context.Context, input PartnerInput) (*Partner, error) {
	if err := validatePartnerInput(input); err != nil {
		return nil, err
	}

	p, err := scanPartner(s.pool.QueryRow(ctx, `
		INSERT INTO partners (id, name, contact, phone, address, default_commission_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+partnerColumns,
		uuid.NewString(), input.Name, input.Contact, input.Phone, input.Address, input.DefaultCommissionRate,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create partner %q: %w", input.Name, err)
	}
	return p, nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, id string, input PartnerInput) (*Partner, error) {
	if err := validatePartnerInput(input); err != nil {
		return nil, err
	}

	p, err := scanPartner(s.pool.QueryRow(ctx, `
		UPDATE partners
		SET name = $1, contact = $2, phone = $3, address = $4, default_commission_rate = $5
		WHERE id = $6
		RETURNING `+partnerColumns,
		input.Name, input.Contact, input.Phone, input.Address, input.DefaultCommissionRate, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("partner %s: %w", id, ErrPartnerNotFound)
		}
		return nil, fmt.Errorf("failed to update partner %s: %w", id, err)
	}
	return p, nil
}

func (s *partnerService) GetPartner(ctx context.Context, id string) (*Partner, error) {
	p, err := scanPartner(s.pool.QueryRow(ctx,
		"SELECT "+partnerColumns+" FROM partners WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("partner %s: %w", id, ErrPartnerNotFound)
		}
		return nil, fmt.Errorf("failed to fetch partner %s: %w", id, err)
	}
	return p, nil
}

func (s *partnerService) GetPartners(ctx context.Context) ([]Partner, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+partnerColumns+" FROM partners ORDER BY create_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, *p)
	}
	return partners, rows.Err()
}
