package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/psd2-consent-management/internal/database"
	"github.com/wso2/psd2-consent-management/internal/models"
)

const authorisationColumns = `AUTHORISATION_ID, PARENT_ID, AUTHORISATION_TYPE, SCA_STATUS, SCA_APPROACH,
		PSU_DATA, CHOSEN_SCA_METHOD, AVAILABLE_SCA_METHODS, SCA_AUTHENTICATION_DATA,
		REDIRECT_URL_EXPIRATION_TIMESTAMP, AUTHORISATION_EXPIRATION_TIMESTAMP,
		TPP_OK_REDIRECT_URI, TPP_NOK_REDIRECT_URI, CREATED_TIME, UPDATED_TIME`

// AuthorisationDAO handles database operations for SCA authorisations
type AuthorisationDAO struct {
	db *database.DB
}

// NewAuthorisationDAO creates a new AuthorisationDAO instance
func NewAuthorisationDAO(db *database.DB) *AuthorisationDAO {
	return &AuthorisationDAO{db: db}
}

// Create inserts a new authorisation into the database
func (dao *AuthorisationDAO) Create(ctx context.Context, auth *models.Authorisation) error {
	query := dao.db.Rebind(`
		INSERT INTO FS_AUTHORISATION (` + authorisationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := dao.db.ExecContext(
		ctx,
		query,
		auth.AuthorisationID,
		auth.ParentID,
		auth.Type,
		auth.ScaStatus,
		auth.ScaApproach,
		auth.PsuData,
		auth.ChosenScaMethod,
		auth.AvailableScaMethods,
		auth.ScaAuthenticationData,
		auth.RedirectURLExpirationTimestamp,
		auth.AuthorisationExpirationTimestamp,
		auth.TppOkRedirectURI,
		auth.TppNokRedirectURI,
		auth.CreatedTime,
		auth.UpdatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create authorisation: %w", err)
	}

	return nil
}

// GetByID retrieves an authorisation by ID
func (dao *AuthorisationDAO) GetByID(ctx context.Context, authorisationID string) (*models.Authorisation, error) {
	query := dao.db.Rebind(`SELECT ` + authorisationColumns + ` FROM FS_AUTHORISATION WHERE AUTHORISATION_ID = ?`)

	var auth models.Authorisation
	err := dao.db.GetContext(ctx, &auth, query, authorisationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("authorisation %w: %s", ErrNotFound, authorisationID)
		}
		return nil, fmt.Errorf("failed to get authorisation: %w", err)
	}

	return &auth, nil
}

// GetByParentID retrieves all authorisations of a type for a consent or payment
func (dao *AuthorisationDAO) GetByParentID(ctx context.Context, parentID string, authType models.AuthorisationType) ([]*models.Authorisation, error) {
	query := dao.db.Rebind(`
		SELECT ` + authorisationColumns + `
		FROM FS_AUTHORISATION
		WHERE PARENT_ID = ? AND AUTHORISATION_TYPE = ?
		ORDER BY CREATED_TIME
	`)

	var auths []*models.Authorisation
	if err := dao.db.SelectContext(ctx, &auths, query, parentID, authType); err != nil {
		return nil, fmt.Errorf("failed to get authorisations by parent: %w", err)
	}

	return auths, nil
}

// Update persists the mutable fields of an authorisation
func (dao *AuthorisationDAO) Update(ctx context.Context, auth *models.Authorisation) error {
	query := dao.db.Rebind(`
		UPDATE FS_AUTHORISATION
		SET SCA_STATUS = ?, SCA_APPROACH = ?, PSU_DATA = ?, CHOSEN_SCA_METHOD = ?,
		    AVAILABLE_SCA_METHODS = ?, SCA_AUTHENTICATION_DATA = ?,
		    REDIRECT_URL_EXPIRATION_TIMESTAMP = ?, AUTHORISATION_EXPIRATION_TIMESTAMP = ?,
		    UPDATED_TIME = ?
		WHERE AUTHORISATION_ID = ?
	`)

	result, err := dao.db.ExecContext(
		ctx,
		query,
		auth.ScaStatus,
		auth.ScaApproach,
		auth.PsuData,
		auth.ChosenScaMethod,
		auth.AvailableScaMethods,
		auth.ScaAuthenticationData,
		auth.RedirectURLExpirationTimestamp,
		auth.AuthorisationExpirationTimestamp,
		auth.UpdatedTime,
		auth.AuthorisationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update authorisation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("authorisation %w: %s", ErrNotFound, auth.AuthorisationID)
	}

	return nil
}
