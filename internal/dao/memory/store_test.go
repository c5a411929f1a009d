package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/psd2-consent-management/internal/dao"
	"github.com/wso2/psd2-consent-management/internal/models"
)

func TestConsentStore_CopiesOnReadAndWrite(t *testing.T) {
	store := NewConsentStore()
	ctx := context.Background()

	consent := &models.Consent{
		ConsentID:   "CONSENT-1",
		Status:      models.ConsentStatusReceived,
		PsuDataList: models.PsuDataList{{PsuID: "alice"}},
	}
	require.NoError(t, store.Create(ctx, consent))

	consent.Status = models.ConsentStatusValid
	consent.PsuDataList[0].PsuID = "mallory"

	stored, err := store.GetByID(ctx, "CONSENT-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConsentStatusReceived, stored.Status)
	assert.Equal(t, "alice", stored.PsuDataList[0].PsuID)

	stored.UsageCounter = 99
	again, err := store.GetByID(ctx, "CONSENT-1")
	require.NoError(t, err)
	assert.Zero(t, again.UsageCounter)
}

func TestConsentStore_NotFound(t *testing.T) {
	store := NewConsentStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &models.Consent{ConsentID: "missing"}), dao.ErrNotFound)
	assert.ErrorIs(t, store.UpdateAll(ctx, []*models.Consent{{ConsentID: "missing"}}), dao.ErrNotFound)
}

func TestConsentStore_Queries(t *testing.T) {
	store := NewConsentStore()
	ctx := context.Background()

	seed := []*models.Consent{
		{ConsentID: "C1", TppID: "tpp", Status: models.ConsentStatusValid, CreatedTime: 1, PsuDataList: models.PsuDataList{{PsuID: "alice"}}},
		{ConsentID: "C2", TppID: "tpp", Status: models.ConsentStatusRejected, CreatedTime: 2, PsuDataList: models.PsuDataList{{PsuID: "bob"}}},
		{ConsentID: "C3", TppID: "other", Status: models.ConsentStatusReceived, CreatedTime: 3, PsuDataList: models.PsuDataList{{PsuID: "alice"}}},
		{ConsentID: "C4", TppID: "tpp", Status: models.ConsentStatusReceived, CreatedTime: 4},
	}
	for _, c := range seed {
		require.NoError(t, store.Create(ctx, c))
	}

	old, err := store.FindOldConsents(ctx, "tpp", "", "C4",
		[]models.ConsentStatus{models.ConsentStatusReceived, models.ConsentStatusValid})
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "C1", old[0].ConsentID)

	byTpp, err := store.FindByTppID(ctx, "tpp")
	require.NoError(t, err)
	assert.Len(t, byTpp, 3)
	assert.Equal(t, "C1", byTpp[0].ConsentID)

	byPsu, err := store.FindByPsuID(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byPsu, 2)
	assert.Equal(t, "C3", byPsu[1].ConsentID)
}

func TestAuthorisationStore_GetByParentIDKeepsCreationOrder(t *testing.T) {
	store := NewAuthorisationStore()
	ctx := context.Background()

	for _, id := range []string{"A3", "A1", "A2"} {
		require.NoError(t, store.Create(ctx, &models.Authorisation{
			AuthorisationID: id,
			ParentID:        "P",
			Type:            models.AuthorisationTypePisCreation,
		}))
	}
	require.NoError(t, store.Create(ctx, &models.Authorisation{
		AuthorisationID: "X",
		ParentID:        "P",
		Type:            models.AuthorisationTypePisCancellation,
	}))

	auths, err := store.GetByParentID(ctx, "P", models.AuthorisationTypePisCreation)
	require.NoError(t, err)
	require.Len(t, auths, 3)
	assert.Equal(t, "A3", auths[0].AuthorisationID)
	assert.Equal(t, "A2", auths[2].AuthorisationID)

	assert.Error(t, store.Create(ctx, &models.Authorisation{AuthorisationID: "A1"}))
}

func TestConsentActionStore(t *testing.T) {
	store := NewConsentActionStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.ConsentAction{ActionID: "1", RequestedConsentID: "C1"}))
	require.NoError(t, store.Create(ctx, &models.ConsentAction{ActionID: "2", RequestedConsentID: "C2"}))

	actions, err := store.GetByConsentID(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "1", actions[0].ActionID)
}
