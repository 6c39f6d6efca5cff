package postgres

import (
	"context"
	"database/sql"
	"errors"

	"magnetix/ticket-service/internal/models"

	"github.com/jackc/pgx/v5"
)

// The configuration is a singleton addressed by the fixed key 1 rather
// than by query cardinality, so zero or duplicate rows cannot occur.

func (s *Store) GetConfig(ctx context.Context) (models.TicketConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT logo, primary_color, secondary_color, company_name, company_address, company_phone, access_password
		FROM config
		WHERE id = 1
	`)
	cfg, err := scanConfig(row)
	if err != nil {
		// An empty store serves defaults without materializing a row;
		// only SaveConfig ever writes.
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DefaultConfig(), nil
		}
		return models.TicketConfig{}, err
	}
	return cfg, nil
}

func (s *Store) SaveConfig(ctx context.Context, cfg models.TicketConfig) (models.TicketConfig, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO config (id, logo, primary_color, secondary_color, company_name, company_address, company_phone, access_password, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			logo = EXCLUDED.logo,
			primary_color = EXCLUDED.primary_color,
			secondary_color = EXCLUDED.secondary_color,
			company_name = EXCLUDED.company_name,
			company_address = EXCLUDED.company_address,
			company_phone = EXCLUDED.company_phone,
			access_password = EXCLUDED.access_password,
			updated_at = NOW()
		RETURNING logo, primary_color, secondary_color, company_name, company_address, company_phone, access_password
	`, nullIfEmpty(cfg.Logo), cfg.PrimaryColor, cfg.SecondaryColor, cfg.CompanyName,
		nullIfEmpty(cfg.CompanyAddress), nullIfEmpty(cfg.CompanyPhone), cfg.AccessPassword)
	return scanConfig(row)
}

func scanConfig(row rowScanner) (models.TicketConfig, error) {
	var cfg models.TicketConfig
	var logoNull sql.NullString
	var addressNull sql.NullString
	var phoneNull sql.NullString
	err := row.Scan(&logoNull, &cfg.PrimaryColor, &cfg.SecondaryColor, &cfg.CompanyName, &addressNull, &phoneNull, &cfg.AccessPassword)
	if err != nil {
		return models.TicketConfig{}, err
	}
	cfg.Logo = nullStringPtr(logoNull)
	cfg.CompanyAddress = nullStringPtr(addressNull)
	cfg.CompanyPhone = nullStringPtr(phoneNull)
	return cfg, nil
}
