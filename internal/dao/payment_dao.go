package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/psd2-consent-management/internal/database"
	"github.com/wso2/psd2-consent-management/internal/models"
)

const paymentColumns = `PAYMENT_ID, PAYMENT_TYPE, PAYMENT_PRODUCT, TRANSACTION_STATUS, TPP_ID, INSTANCE_ID,
		PSU_DATA, MULTILEVEL_SCA_REQUIRED, PAYLOAD, TPP_REDIRECT_URI, TPP_NOK_REDIRECT_URI,
		TPP_CANCEL_REDIRECT_URI, TPP_CANCEL_NOK_REDIRECT_URI, CREATED_TIME, STATUS_CHANGE_TIME, UPDATED_TIME`

// PaymentDAO handles database operations for payment initiations
type PaymentDAO struct {
	db *database.DB
}

// NewPaymentDAO creates a new PaymentDAO instance
func NewPaymentDAO(db *database.DB) *PaymentDAO {
	return &PaymentDAO{db: db}
}

// Create inserts a new payment into the database
func (dao *PaymentDAO) Create(ctx context.Context, payment *models.Payment) error {
	query := dao.db.Rebind(`
		INSERT INTO FS_PAYMENT (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := dao.db.ExecContext(
		ctx,
		query,
		payment.PaymentID,
		payment.PaymentType,
		payment.PaymentProduct,
		payment.TransactionStatus,
		payment.TppID,
		payment.InstanceID,
		payment.PsuDataList,
		payment.MultilevelScaRequired,
		payment.Payload,
		payment.TppRedirectURI,
		payment.TppNokRedirectURI,
		payment.TppCancelRedirectURI,
		payment.TppCancelNokRedirectURI,
		payment.CreatedTime,
		payment.StatusChangeTime,
		payment.UpdatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (dao *PaymentDAO) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	query := dao.db.Rebind(`SELECT ` + paymentColumns + ` FROM FS_PAYMENT WHERE PAYMENT_ID = ?`)

	var payment models.Payment
	err := dao.db.GetContext(ctx, &payment, query, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %w: %s", ErrNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// Update persists the mutable fields of a payment
func (dao *PaymentDAO) Update(ctx context.Context, payment *models.Payment) error {
	query := dao.db.Rebind(`
		UPDATE FS_PAYMENT
		SET TRANSACTION_STATUS = ?, PSU_DATA = ?, MULTILEVEL_SCA_REQUIRED = ?,
		    STATUS_CHANGE_TIME = ?, UPDATED_TIME = ?
		WHERE PAYMENT_ID = ?
	`)

	result, err := dao.db.ExecContext(
		ctx,
		query,
		payment.TransactionStatus,
		payment.PsuDataList,
		payment.MultilevelScaRequired,
		payment.StatusChangeTime,
		payment.UpdatedTime,
		payment.PaymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("payment %w: %s", ErrNotFound, payment.PaymentID)
	}

	return nil
}
