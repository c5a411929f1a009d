package dao

import (
	"context"
	"fmt"

	"github.com/wso2/psd2-consent-management/internal/database"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// ConsentActionDAO appends consent usage records
type ConsentActionDAO struct {
	db *database.DB
}

// NewConsentActionDAO creates a new ConsentActionDAO instance
func NewConsentActionDAO(db *database.DB) *ConsentActionDAO {
	return &ConsentActionDAO{db: db}
}

// Create inserts a consent action record
func (dao *ConsentActionDAO) Create(ctx context.Context, action *models.ConsentAction) error {
	query := dao.db.Rebind(`
		INSERT INTO FS_CONSENT_ACTION (
			ACTION_ID, REQUESTED_CONSENT_ID, ACTION_STATUS, TPP_ID, REQUEST_DATE, CREATED_TIME
		) VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := dao.db.ExecContext(
		ctx,
		query,
		action.ActionID,
		action.RequestedConsentID,
		action.ActionStatus,
		action.TppID,
		action.RequestDate,
		action.CreatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create consent action: %w", err)
	}

	return nil
}

// GetByConsentID retrieves the action history of a consent, oldest first
func (dao *ConsentActionDAO) GetByConsentID(ctx context.Context, consentID string) ([]models.ConsentAction, error) {
	query := dao.db.Rebind(`
		SELECT ACTION_ID, REQUESTED_CONSENT_ID, ACTION_STATUS, TPP_ID, REQUEST_DATE, CREATED_TIME
		FROM FS_CONSENT_ACTION
		WHERE REQUESTED_CONSENT_ID = ?
		ORDER BY CREATED_TIME
	`)

	var actions []models.ConsentAction
	if err := dao.db.SelectContext(ctx, &actions, query, consentID); err != nil {
		return nil, fmt.Errorf("failed to get consent actions: %w", err)
	}

	return actions, nil
}
