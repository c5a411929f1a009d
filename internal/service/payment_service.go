package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/pkg/utils"
)

// PaymentService handles the transaction status lifecycle of payments
type PaymentService struct {
	paymentStore PaymentStore
	authStore    AuthorisationStore
	profile      BankProfile
	policy       *ExpirationPolicy
	psu          *PsuService
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(
	paymentStore PaymentStore,
	authStore AuthorisationStore,
	profile BankProfile,
	policy *ExpirationPolicy,
	psu *PsuService,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentStore: paymentStore,
		authStore:    authStore,
		profile:      profile,
		policy:       policy,
		psu:          psu,
		metrics:      m,
		logger:       logger,
	}
}

// CreatePayment registers a payment initiation in RCVD status
func (s *PaymentService) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.CreatePaymentResponse, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	psuList := make(models.PsuDataList, 0, len(req.PsuData))
	for i := range req.PsuData {
		if s.psu.IsPsuDataNew(&req.PsuData[i], psuList) {
			psuList = append(psuList, req.PsuData[i])
		}
	}

	nowMillis := s.policy.NowMillis()
	payment := &models.Payment{
		PaymentID:               utils.GeneratePaymentID(),
		PaymentType:             req.PaymentType,
		PaymentProduct:          req.PaymentProduct,
		TransactionStatus:       models.TransactionStatusRCVD,
		TppID:                   req.TppID,
		InstanceID:              req.InstanceID,
		PsuDataList:             psuList,
		Payload:                 req.Payload,
		TppRedirectURI:          req.TppRedirectURI,
		TppNokRedirectURI:       req.TppNokRedirectURI,
		TppCancelRedirectURI:    req.TppCancelRedirectURI,
		TppCancelNokRedirectURI: req.TppCancelNokRedirectURI,
		CreatedTime:             nowMillis,
		StatusChangeTime:        nowMillis,
		UpdatedTime:             nowMillis,
	}

	if err := s.paymentStore.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"paymentId":      payment.PaymentID,
		"paymentProduct": payment.PaymentProduct,
		"tppId":          payment.TppID,
	}).Info("Payment created")

	return &models.CreatePaymentResponse{
		PaymentID:         payment.PaymentID,
		TransactionStatus: payment.TransactionStatus,
	}, nil
}

// GetPayment returns the payment after the confirmation check, nil when absent
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	if err := utils.ValidatePaymentID(paymentID); err != nil {
		return nil, err
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil || payment == nil {
		return nil, err
	}
	return s.CheckAndUpdateOnConfirmationExpiration(ctx, payment)
}

// GetTransactionStatus returns the payment transaction status
func (s *PaymentService) GetTransactionStatus(ctx context.Context, paymentID string) (*models.TransactionStatusResponse, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil || payment == nil {
		return nil, err
	}
	return &models.TransactionStatusResponse{TransactionStatus: payment.TransactionStatus}, nil
}

// UpdateTransactionStatus changes the transaction status. Returns false when
// the payment is absent or already finalised.
func (s *PaymentService) UpdateTransactionStatus(ctx context.Context, paymentID string, status models.TransactionStatus) (bool, error) {
	if !status.IsValid() {
		return false, utils.NewValidationError("transactionStatus", fmt.Sprintf("unknown transaction status %q", status))
	}

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil || payment == nil {
		return false, err
	}

	if payment.TransactionStatus.IsFinalised() {
		s.logger.WithFields(logrus.Fields{
			"paymentId":         paymentID,
			"transactionStatus": payment.TransactionStatus,
		}).Info("Update transaction status failed, because payment is finalised")
		return false, nil
	}

	if err := s.changeStatus(ctx, payment, status); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateMultilevelScaRequired sets the multilevel SCA flag. Returns false when the payment is absent.
func (s *PaymentService) UpdateMultilevelScaRequired(ctx context.Context, paymentID string, required bool) (bool, error) {
	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil || payment == nil {
		return false, err
	}

	payment.MultilevelScaRequired = required
	payment.UpdatedTime = s.policy.NowMillis()
	if err := s.paymentStore.Update(ctx, payment); err != nil {
		return false, fmt.Errorf("failed to update multilevel sca flag: %w", err)
	}
	return true, nil
}

// GetPsuDataByPaymentID returns the PSUs bound to the payment, nil when it is absent
func (s *PaymentService) GetPsuDataByPaymentID(ctx context.Context, paymentID string) (models.PsuDataList, error) {
	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil || payment == nil {
		return nil, err
	}
	if payment.PsuDataList == nil {
		return models.PsuDataList{}, nil
	}
	return payment.PsuDataList, nil
}

// IsConfirmationExpired reports whether an unconfirmed payment outlived its confirmation window
func (s *PaymentService) IsConfirmationExpired(payment *models.Payment) bool {
	if payment == nil || !payment.TransactionStatus.AcceptsAuthorisation() {
		return false
	}
	return s.policy.IsConfirmationWindowClosed(payment.CreatedTime, s.profile.NotConfirmedPaymentExpiration())
}

// CheckAndUpdateOnConfirmationExpiration rejects the payment when its confirmation window closed
func (s *PaymentService) CheckAndUpdateOnConfirmationExpiration(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if !s.IsConfirmationExpired(payment) {
		return payment, nil
	}
	return s.UpdateOnConfirmationExpiration(ctx, payment)
}

// UpdateOnConfirmationExpiration rejects the payment and fails its open authorisations
func (s *PaymentService) UpdateOnConfirmationExpiration(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	s.logger.WithField("paymentId", payment.PaymentID).Info("Payment confirmation expired")

	if err := s.changeStatus(ctx, payment, models.TransactionStatusRJCT); err != nil {
		return nil, err
	}
	if err := failOpenAuthorisations(ctx, s.authStore, s.policy, s.metrics, payment.PaymentID,
		models.AuthorisationTypePisCreation, models.AuthorisationTypePisCancellation); err != nil {
		return nil, err
	}
	s.metrics.IncrementConfirmationExpiration("payment")
	return payment, nil
}

func (s *PaymentService) changeStatus(ctx context.Context, payment *models.Payment, status models.TransactionStatus) error {
	nowMillis := s.policy.NowMillis()
	payment.TransactionStatus = status
	payment.StatusChangeTime = nowMillis
	payment.UpdatedTime = nowMillis

	if err := s.paymentStore.Update(ctx, payment); err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"paymentId":         payment.PaymentID,
		"transactionStatus": status,
	}).Debug("Transaction status updated")
	return nil
}

func (s *PaymentService) loadPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.paymentStore.GetByID(ctx, paymentID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) validateCreateRequest(req *models.CreatePaymentRequest) error {
	if req == nil {
		return utils.NewValidationError("request", "request body is required")
	}
	if err := utils.ValidateTppID(req.TppID); err != nil {
		return err
	}
	if err := utils.ValidateRequired("paymentProduct", req.PaymentProduct); err != nil {
		return err
	}
	if err := utils.ValidateMaxLength("paymentProduct", req.PaymentProduct, 255); err != nil {
		return err
	}
	return utils.ValidateOneOf("paymentType", string(req.PaymentType),
		string(models.PaymentTypeSingle), string(models.PaymentTypeBulk), string(models.PaymentTypePeriodic))
}
