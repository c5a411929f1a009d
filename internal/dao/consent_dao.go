package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/wso2/psd2-consent-management/internal/database"
	"github.com/wso2/psd2-consent-management/internal/models"
)

const consentColumns = `CONSENT_ID, CONSENT_TYPE, CONSENT_STATUS, VALID_UNTIL,
		EXPECTED_FREQUENCY_PER_DAY, TPP_FREQUENCY_PER_DAY, USAGE_COUNTER, LAST_ACTION_DATE,
		RECURRING_INDICATOR, COMBINED_SERVICE_INDICATOR, MULTILEVEL_SCA_REQUIRED,
		TPP_ID, INSTANCE_ID, PSU_DATA, ACCESS_SCOPE, ASPSP_PAYLOAD,
		TPP_REDIRECT_URI, TPP_NOK_REDIRECT_URI, CREATED_TIME, STATUS_CHANGE_TIME, UPDATED_TIME`

// ConsentDAO handles database operations for consents
type ConsentDAO struct {
	db *database.DB
}

// NewConsentDAO creates a new ConsentDAO instance
func NewConsentDAO(db *database.DB) *ConsentDAO {
	return &ConsentDAO{db: db}
}

// Create inserts a new consent into the database
func (dao *ConsentDAO) Create(ctx context.Context, consent *models.Consent) error {
	query := dao.db.Rebind(`
		INSERT INTO FS_CONSENT (` + consentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := dao.db.ExecContext(
		ctx,
		query,
		consent.ConsentID,
		consent.ConsentType,
		consent.Status,
		consent.ValidUntil,
		consent.ExpectedFrequencyPerDay,
		consent.TppFrequencyPerDay,
		consent.UsageCounter,
		consent.LastActionDate,
		consent.RecurringIndicator,
		consent.CombinedServiceIndicator,
		consent.MultilevelScaRequired,
		consent.TppID,
		consent.InstanceID,
		consent.PsuDataList,
		consent.AccessScope,
		consent.AspspPayload,
		consent.TppRedirectURI,
		consent.TppNokRedirectURI,
		consent.CreatedTime,
		consent.StatusChangeTime,
		consent.UpdatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create consent: %w", err)
	}

	return nil
}

// GetByID retrieves a consent by its external ID
func (dao *ConsentDAO) GetByID(ctx context.Context, consentID string) (*models.Consent, error) {
	query := dao.db.Rebind(`SELECT ` + consentColumns + ` FROM FS_CONSENT WHERE CONSENT_ID = ?`)

	var consent models.Consent
	err := dao.db.GetContext(ctx, &consent, query, consentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("consent %w: %s", ErrNotFound, consentID)
		}
		return nil, fmt.Errorf("failed to get consent: %w", err)
	}

	return &consent, nil
}

const updateConsentQuery = `
		UPDATE FS_CONSENT
		SET CONSENT_STATUS = ?, VALID_UNTIL = ?, EXPECTED_FREQUENCY_PER_DAY = ?,
		    USAGE_COUNTER = ?, LAST_ACTION_DATE = ?, MULTILEVEL_SCA_REQUIRED = ?,
		    PSU_DATA = ?, ACCESS_SCOPE = ?, ASPSP_PAYLOAD = ?,
		    STATUS_CHANGE_TIME = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ?
	`

func updateConsentArgs(consent *models.Consent) []interface{} {
	return []interface{}{
		consent.Status,
		consent.ValidUntil,
		consent.ExpectedFrequencyPerDay,
		consent.UsageCounter,
		consent.LastActionDate,
		consent.MultilevelScaRequired,
		consent.PsuDataList,
		consent.AccessScope,
		consent.AspspPayload,
		consent.StatusChangeTime,
		consent.UpdatedTime,
		consent.ConsentID,
	}
}

// Update persists the mutable fields of an existing consent
func (dao *ConsentDAO) Update(ctx context.Context, consent *models.Consent) error {
	result, err := dao.db.ExecContext(ctx, dao.db.Rebind(updateConsentQuery), updateConsentArgs(consent)...)
	if err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("consent %w: %s", ErrNotFound, consent.ConsentID)
	}

	return nil
}

// UpdateAll persists several consents in one transaction
func (dao *ConsentDAO) UpdateAll(ctx context.Context, consents []*models.Consent) error {
	if len(consents) == 0 {
		return nil
	}

	query := dao.db.Rebind(updateConsentQuery)
	return dao.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		for _, consent := range consents {
			if _, err := tx.ExecContext(ctx, query, updateConsentArgs(consent)...); err != nil {
				return fmt.Errorf("failed to update consent %s: %w", consent.ConsentID, err)
			}
		}
		return nil
	})
}

// FindOldConsents returns the consents of a TPP instance in one of the given
// statuses, excluding the consent with excludeID
func (dao *ConsentDAO) FindOldConsents(ctx context.Context, tppID, instanceID, excludeID string, statuses []models.ConsentStatus) ([]*models.Consent, error) {
	if len(statuses) == 0 {
		return []*models.Consent{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+consentColumns+`
		FROM FS_CONSENT
		WHERE TPP_ID = ? AND INSTANCE_ID = ? AND CONSENT_ID <> ? AND CONSENT_STATUS IN (?)
		ORDER BY CREATED_TIME
	`, tppID, instanceID, excludeID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build old consents query: %w", err)
	}

	var consents []*models.Consent
	if err := dao.db.SelectContext(ctx, &consents, dao.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to find old consents: %w", err)
	}

	return consents, nil
}

// FindByTppID returns every consent created by the TPP
func (dao *ConsentDAO) FindByTppID(ctx context.Context, tppID string) ([]*models.Consent, error) {
	query := dao.db.Rebind(`SELECT ` + consentColumns + ` FROM FS_CONSENT WHERE TPP_ID = ? ORDER BY CREATED_TIME`)

	var consents []*models.Consent
	if err := dao.db.SelectContext(ctx, &consents, query, tppID); err != nil {
		return nil, fmt.Errorf("failed to find consents by tpp: %w", err)
	}

	return consents, nil
}

// FindByPsuID returns every consent bound to a PSU with the given psuId
func (dao *ConsentDAO) FindByPsuID(ctx context.Context, psuID string) ([]*models.Consent, error) {
	// PSU_DATA is a JSON list; LIKE narrows the rows, the exact match happens below
	query := dao.db.Rebind(`SELECT ` + consentColumns + ` FROM FS_CONSENT WHERE PSU_DATA LIKE ? ESCAPE '!' ORDER BY CREATED_TIME`)

	var candidates []*models.Consent
	if err := dao.db.SelectContext(ctx, &candidates, query, containsPattern(psuID)); err != nil {
		return nil, fmt.Errorf("failed to find consents by psu: %w", err)
	}

	consents := make([]*models.Consent, 0, len(candidates))
	for _, consent := range candidates {
		for _, id := range consent.PsuDataList.PsuIDs() {
			if id == psuID {
				consents = append(consents, consent)
				break
			}
		}
	}

	return consents, nil
}
