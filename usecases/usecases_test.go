package usecases

import (
	"context"
	"testing"

	"siar-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDevice(t *testing.T) {
	f := newFixture(t)
	uc := NewDeviceUseCase(f.store)
	ctx := context.Background()

	d, err := uc.CreateDevice(ctx, f.user.ID, "  Jardín  ")
	require.NoError(t, err)
	assert.Equal(t, "Jardín", d.Name)
	assert.Len(t, d.APIKey, 64)
	assert.Equal(t, entities.StateOffline, d.Status)

	byKey, err := deviceByKey(ctx, f.store, d.APIKey)
	require.NoError(t, err)
	assert.Equal(t, d.ID, byKey.ID)

	_, err = uc.CreateDevice(ctx, f.user.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.CreateDevice(ctx, "ghost", "Patio")
	assert.ErrorIs(t, err, ErrUserNotFound)

	list, err := uc.GetDevicesByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetDeviceOwnership(t *testing.T) {
	f := newFixture(t)
	uc := NewDeviceUseCase(f.store)

	_, err := uc.GetDevice(context.Background(), "intruder", f.device.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	_, err = uc.GetDevice(context.Background(), f.user.ID, "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	d, err := uc.GetDevice(context.Background(), f.user.ID, f.device.ID)
	require.NoError(t, err)
	assert.Equal(t, "Huerto", d.Name)
}
