package usecases

import (
	"context"
	"fmt"
	"strings"

	"siar-server/entities"
	"siar-server/logs"
	"siar-server/repositories"

	"github.com/sirupsen/logrus"
)

// Notifier pushes a payload to every live dashboard session of a user.
type Notifier interface {
	Notify(userID string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, interface{}) {}

type DeviceUseCase struct {
	store repositories.Store
}

func NewDeviceUseCase(store repositories.Store) *DeviceUseCase {
	return &DeviceUseCase{store: store}
}

// CreateDevice registers a device for userID and returns it with its API key.
func (uc *DeviceUseCase) CreateDevice(ctx context.Context, userID, name string) (*entities.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre_dispositivo is required", ErrValidation)
	}
	if _, err := uc.store.Users().GetByID(ctx, userID); err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}

	device := &entities.Device{UserID: userID, Name: name, Status: entities.StateOffline}
	if err := uc.store.Devices().Create(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"device_id": device.ID, "user_id": userID}).Info("device registered")
	return device, nil
}

// GetDevice returns the device only when userID owns it.
func (uc *DeviceUseCase) GetDevice(ctx context.Context, userID, deviceID string) (*entities.Device, error) {
	return ownedDevice(ctx, uc.store, userID, deviceID)
}

// GetDevicesByUserID retrieves all devices for a specific user
func (uc *DeviceUseCase) GetDevicesByUserID(ctx context.Context, userID string) ([]entities.Device, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return uc.store.Devices().GetByUserID(ctx, userID)
}

// deviceByKey resolves a device by exact API key match.
func deviceByKey(ctx context.Context, store repositories.Store, key string) (*entities.Device, error) {
	if key == "" {
		return nil, ErrDeviceNotFound
	}
	d, err := store.Devices().GetByAPIKey(ctx, key)
	if err != nil {
		return nil, orNotFound(err, ErrDeviceNotFound)
	}
	return d, nil
}

// ownedDevice hides other users' devices behind ErrDeviceNotFound.
func ownedDevice(ctx context.Context, store repositories.Store, userID, deviceID string) (*entities.Device, error) {
	if deviceID == "" {
		return nil, ErrDeviceNotFound
	}
	d, err := store.Devices().GetByID(ctx, deviceID)
	if err != nil {
		return nil, orNotFound(err, ErrDeviceNotFound)
	}
	if d.UserID != userID {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}
