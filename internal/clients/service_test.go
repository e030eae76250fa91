package clients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Client{}, &models.WebhookConfig{}, &models.FailedEvent{}))
	return NewService(db)
}

func createTestClient(t *testing.T, service *Service, accountID int64, enabled bool) *models.Client {
	t.Helper()
	client, err := service.Create(context.Background(), CreateClientInput{
		AccountID:   accountID,
		AccountName: "acme",
		Enabled:     enabled,
	})
	require.NoError(t, err)
	return client
}

func TestCreateSeedsAllWebhookConfigs(t *testing.T) {
	service := newTestService(t)
	client := createTestClient(t, service, 42, true)

	assert.NotEqual(t, uuid.Nil, client.ID)
	assert.Len(t, client.WebhookSecretKey, 64)
	require.Len(t, client.WebhookConfigs, len(models.EventKinds))
	for _, config := range client.WebhookConfigs {
		assert.True(t, config.Enabled)
	}
}

func TestIsEventEnabled(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	enabled, err := service.IsEventEnabled(ctx, 42, models.PicturesCreate)
	require.NoError(t, err)
	assert.True(t, enabled)

	// Unknown account is false, not an error
	enabled, err = service.IsEventEnabled(ctx, 999, models.PicturesCreate)
	require.NoError(t, err)
	assert.False(t, enabled)

	// Disabling one kind leaves the others enabled
	_, err = service.UpdateWebhookConfigs(ctx, client.ID, []WebhookConfigInput{
		{EventType: models.PicturesCreate, Enabled: false},
	})
	require.NoError(t, err)

	enabled, err = service.IsEventEnabled(ctx, 42, models.PicturesCreate)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = service.IsEventEnabled(ctx, 42, models.PicturesUpdate)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestIsEventEnabledDisabledClient(t *testing.T) {
	service := newTestService(t)
	createTestClient(t, service, 42, false)

	enabled, err := service.IsEventEnabled(context.Background(), 42, models.PicturesCreate)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestValidateWebhookKey(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	valid, err := service.ValidateWebhookKey(ctx, 42, client.WebhookSecretKey)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.ValidateWebhookKey(ctx, 42, "wrong-key")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = service.ValidateWebhookKey(ctx, 999, client.WebhookSecretKey)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateWebhookKeyDisabledClient(t *testing.T) {
	service := newTestService(t)
	client := createTestClient(t, service, 42, false)

	valid, err := service.ValidateWebhookKey(context.Background(), 42, client.WebhookSecretKey)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestFindIDByAccountID(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	id, err := service.FindIDByAccountID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, client.ID, *id)

	id, err = service.FindIDByAccountID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestRegenerateWebhookKey(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	updated, err := service.RegenerateWebhookKey(ctx, client.ID)
	require.NoError(t, err)
	assert.NotEqual(t, client.WebhookSecretKey, updated.WebhookSecretKey)
	assert.Len(t, updated.WebhookSecretKey, 64)

	_, err = service.RegenerateWebhookKey(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateClient(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	name := "renamed"
	disabled := false
	updated, err := service.Update(ctx, client.ID, UpdateClientInput{
		AccountName: &name,
		Enabled:     &disabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.AccountName)
	assert.False(t, updated.Enabled)

	_, err = service.Update(ctx, uuid.New(), UpdateClientInput{AccountName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteClient(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()
	client := createTestClient(t, service, 42, true)

	require.NoError(t, service.Delete(ctx, client.ID))

	_, err := service.FindByID(ctx, client.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Configs went with the client
	enabled, err := service.IsEventEnabled(ctx, 42, models.PicturesCreate)
	require.NoError(t, err)
	assert.False(t, enabled)

	assert.ErrorIs(t, service.Delete(ctx, client.ID), ErrNotFound)
}

func TestFindAllPagination(t *testing.T) {
	service := newTestService(t)
	for i := int64(1); i <= 5; i++ {
		createTestClient(t, service, i, true)
	}

	result, err := service.FindAll(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, int64(5), result.Pagination.Total)
	assert.Equal(t, int64(3), result.Pagination.TotalPages)
}

func TestGenerateSecretKey(t *testing.T) {
	first, err := GenerateSecretKey()
	require.NoError(t, err)
	second, err := GenerateSecretKey()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
