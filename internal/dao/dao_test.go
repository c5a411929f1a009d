package dao

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/psd2-consent-management/internal/database"
	"github.com/wso2/psd2-consent-management/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return database.Wrap(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}

var consentRowColumns = []string{
	"CONSENT_ID", "CONSENT_TYPE", "CONSENT_STATUS", "VALID_UNTIL",
	"EXPECTED_FREQUENCY_PER_DAY", "TPP_FREQUENCY_PER_DAY", "USAGE_COUNTER", "LAST_ACTION_DATE",
	"RECURRING_INDICATOR", "COMBINED_SERVICE_INDICATOR", "MULTILEVEL_SCA_REQUIRED",
	"TPP_ID", "INSTANCE_ID", "PSU_DATA", "ACCESS_SCOPE", "ASPSP_PAYLOAD",
	"TPP_REDIRECT_URI", "TPP_NOK_REDIRECT_URI", "CREATED_TIME", "STATUS_CHANGE_TIME", "UPDATED_TIME",
}

func consentRow(rows *sqlmock.Rows, id, psuJSON string) *sqlmock.Rows {
	return rows.AddRow(
		id, "AIS", "VALID", "2030-01-01",
		4, 4, 3, nil,
		true, false, false,
		"tpp-1", "", []byte(psuJSON), []byte(`{"allPsd2":"ALL_ACCOUNTS"}`), nil,
		nil, nil, int64(1000), int64(1000), int64(2000),
	)
}

func TestConsentDAO_Create(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)

	consent := &models.Consent{
		ConsentID:   "CONSENT-1",
		ConsentType: models.ConsentTypeAIS,
		Status:      models.ConsentStatusReceived,
		PsuDataList: models.PsuDataList{{PsuID: "alice"}},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO FS_CONSENT").WillReturnResult(sqlmock.NewResult(1, 1))
		require.NoError(t, dao.Create(context.Background(), consent))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO FS_CONSENT").WillReturnError(sql.ErrConnDone)
		err := dao.Create(context.Background(), consent)
		require.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Contains(t, err.Error(), "failed to create consent")
	})
}

func TestConsentDAO_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)

	t.Run("found", func(t *testing.T) {
		rows := consentRow(sqlmock.NewRows(consentRowColumns), "CONSENT-1", `[{"psuId":"alice"}]`)
		mock.ExpectQuery("SELECT .* FROM FS_CONSENT WHERE CONSENT_ID = ?").
			WithArgs("CONSENT-1").
			WillReturnRows(rows)

		consent, err := dao.GetByID(context.Background(), "CONSENT-1")
		require.NoError(t, err)
		assert.Equal(t, models.ConsentStatusValid, consent.Status)
		assert.Equal(t, 3, consent.UsageCounter)
		assert.True(t, consent.RecurringIndicator)
		assert.Equal(t, []string{"alice"}, consent.PsuDataList.PsuIDs())
		assert.Equal(t, "ALL_ACCOUNTS", consent.AccessScope.AllPsd2)
		assert.Nil(t, consent.LastActionDate)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM FS_CONSENT").
			WithArgs("CONSENT-X").
			WillReturnError(sql.ErrNoRows)

		consent, err := dao.GetByID(context.Background(), "CONSENT-X")
		assert.Nil(t, consent)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "consent not found: CONSENT-X")
	})
}

func TestConsentDAO_Update(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)
	consent := &models.Consent{ConsentID: "CONSENT-1", Status: models.ConsentStatusExpired}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE FS_CONSENT").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, dao.Update(context.Background(), consent))
	})

	t.Run("no rows", func(t *testing.T) {
		mock.ExpectExec("UPDATE FS_CONSENT").WillReturnResult(sqlmock.NewResult(0, 0))
		err := dao.Update(context.Background(), consent)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConsentDAO_UpdateAll(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)
	consents := []*models.Consent{{ConsentID: "CONSENT-1"}, {ConsentID: "CONSENT-2"}}

	t.Run("commits", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE FS_CONSENT").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE FS_CONSENT").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, dao.UpdateAll(context.Background(), consents))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE FS_CONSENT").WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := dao.UpdateAll(context.Background(), consents)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input", func(t *testing.T) {
		assert.NoError(t, dao.UpdateAll(context.Background(), nil))
	})
}

func TestConsentDAO_FindOldConsents(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)

	rows := consentRow(sqlmock.NewRows(consentRowColumns), "CONSENT-OLD", `[{"psuId":"alice"}]`)
	mock.ExpectQuery("CONSENT_STATUS IN \\(\\?, \\?\\)").
		WithArgs("tpp-1", "", "CONSENT-NEW", "RECEIVED", "VALID").
		WillReturnRows(rows)

	consents, err := dao.FindOldConsents(context.Background(), "tpp-1", "", "CONSENT-NEW",
		[]models.ConsentStatus{models.ConsentStatusReceived, models.ConsentStatusValid})
	require.NoError(t, err)
	require.Len(t, consents, 1)
	assert.Equal(t, "CONSENT-OLD", consents[0].ConsentID)
}

func TestConsentDAO_FindByPsuID(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentDAO(db)

	rows := sqlmock.NewRows(consentRowColumns)
	consentRow(rows, "CONSENT-1", `[{"psuId":"alice"}]`)
	consentRow(rows, "CONSENT-2", `[{"psuId":"alice2"}]`)
	mock.ExpectQuery("PSU_DATA LIKE").
		WithArgs("%alice%").
		WillReturnRows(rows)

	consents, err := dao.FindByPsuID(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, consents, 1)
	assert.Equal(t, "CONSENT-1", consents[0].ConsentID)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%alice%", containsPattern("alice"))
	assert.Equal(t, "%a!%b!_c!!%", containsPattern("a%b_c!"))
}

var authorisationRowColumns = []string{
	"AUTHORISATION_ID", "PARENT_ID", "AUTHORISATION_TYPE", "SCA_STATUS", "SCA_APPROACH",
	"PSU_DATA", "CHOSEN_SCA_METHOD", "AVAILABLE_SCA_METHODS", "SCA_AUTHENTICATION_DATA",
	"REDIRECT_URL_EXPIRATION_TIMESTAMP", "AUTHORISATION_EXPIRATION_TIMESTAMP",
	"TPP_OK_REDIRECT_URI", "TPP_NOK_REDIRECT_URI", "CREATED_TIME", "UPDATED_TIME",
}

func TestAuthorisationDAO(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewAuthorisationDAO(db)
	ctx := context.Background()

	t.Run("get by parent", func(t *testing.T) {
		rows := sqlmock.NewRows(authorisationRowColumns).
			AddRow("AUTH-1", "CONSENT-1", "CONSENT", "PSUIDENTIFIED", "REDIRECT",
				[]byte(`{"psuId":"alice"}`), nil, []byte(`[{"authenticationMethodId":"sms","decoupled":false}]`), nil,
				int64(5000), int64(9000), "https://ok", nil, int64(1000), int64(1000)).
			AddRow("AUTH-2", "CONSENT-1", "CONSENT", "RECEIVED", "EMBEDDED",
				nil, nil, nil, nil,
				int64(5000), int64(9000), nil, nil, int64(1100), int64(1100))
		mock.ExpectQuery("FROM FS_AUTHORISATION").
			WithArgs("CONSENT-1", "CONSENT").
			WillReturnRows(rows)

		auths, err := dao.GetByParentID(ctx, "CONSENT-1", models.AuthorisationTypeConsent)
		require.NoError(t, err)
		require.Len(t, auths, 2)
		require.NotNil(t, auths[0].PsuData)
		assert.Equal(t, "alice", auths[0].PsuData.PsuID)
		assert.Equal(t, "sms", auths[0].AvailableScaMethods[0].AuthenticationMethodID)
		assert.Equal(t, "https://ok", *auths[0].TppOkRedirectURI)
		assert.Nil(t, auths[1].PsuData)
	})

	t.Run("get by id not found", func(t *testing.T) {
		mock.ExpectQuery("FROM FS_AUTHORISATION WHERE AUTHORISATION_ID").
			WithArgs("AUTH-X").
			WillReturnError(sql.ErrNoRows)
		auth, err := dao.GetByID(ctx, "AUTH-X")
		assert.Nil(t, auth)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create and update", func(t *testing.T) {
		auth := &models.Authorisation{AuthorisationID: "AUTH-1", ParentID: "CONSENT-1", Type: models.AuthorisationTypeConsent}
		mock.ExpectExec("INSERT INTO FS_AUTHORISATION").WillReturnResult(sqlmock.NewResult(1, 1))
		require.NoError(t, dao.Create(ctx, auth))

		mock.ExpectExec("UPDATE FS_AUTHORISATION").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, dao.Update(ctx, auth), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentDAO(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewPaymentDAO(db)
	ctx := context.Background()

	columns := []string{
		"PAYMENT_ID", "PAYMENT_TYPE", "PAYMENT_PRODUCT", "TRANSACTION_STATUS", "TPP_ID", "INSTANCE_ID",
		"PSU_DATA", "MULTILEVEL_SCA_REQUIRED", "PAYLOAD", "TPP_REDIRECT_URI", "TPP_NOK_REDIRECT_URI",
		"TPP_CANCEL_REDIRECT_URI", "TPP_CANCEL_NOK_REDIRECT_URI", "CREATED_TIME", "STATUS_CHANGE_TIME", "UPDATED_TIME",
	}

	t.Run("get by id", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).AddRow(
			"PAYMENT-1", "SINGLE", "sepa-credit-transfers", "RCVD", "tpp-1", "",
			[]byte(`[]`), int64(1), []byte(`{"amount":"10"}`), nil, nil,
			"https://cancel", nil, int64(1), int64(1), int64(1))
		mock.ExpectQuery("FROM FS_PAYMENT WHERE PAYMENT_ID").WithArgs("PAYMENT-1").WillReturnRows(rows)

		payment, err := dao.GetByID(ctx, "PAYMENT-1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRCVD, payment.TransactionStatus)
		assert.True(t, payment.MultilevelScaRequired)
		assert.Empty(t, payment.PsuDataList)
		ok, nok := payment.GetCancellationRedirectURIs()
		assert.Equal(t, "https://cancel", ok)
		assert.Empty(t, nok)
	})

	t.Run("update", func(t *testing.T) {
		mock.ExpectExec("UPDATE FS_PAYMENT").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, dao.Update(ctx, &models.Payment{PaymentID: "PAYMENT-1"}))
	})
}

func TestConsentActionDAO(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewConsentActionDAO(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO FS_CONSENT_ACTION").
		WithArgs("ACTION-1", "CONSENT-1", "SUCCESS", "tpp-1", "2026-10-18", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, dao.Create(ctx, &models.ConsentAction{
		ActionID:           "ACTION-1",
		RequestedConsentID: "CONSENT-1",
		ActionStatus:       models.ActionStatusSuccess,
		TppID:              "tpp-1",
		RequestDate:        "2026-10-18",
		CreatedTime:        1,
	}))

	rows := sqlmock.NewRows([]string{"ACTION_ID", "REQUESTED_CONSENT_ID", "ACTION_STATUS", "TPP_ID", "REQUEST_DATE", "CREATED_TIME"}).
		AddRow("ACTION-1", "CONSENT-1", "SUCCESS", "tpp-1", "2026-10-18", int64(1))
	mock.ExpectQuery("FROM FS_CONSENT_ACTION").WithArgs("CONSENT-1").WillReturnRows(rows)

	actions, err := dao.GetByConsentID(ctx, "CONSENT-1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionStatusSuccess, actions[0].ActionStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
