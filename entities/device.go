package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Device struct {
	ID            string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string      `gorm:"index;type:varchar(36);not null" json:"user_id"`
	Name          string      `gorm:"type:varchar(100);not null" json:"nombre_dispositivo"`
	APIKey        string      `gorm:"uniqueIndex;type:varchar(64);not null" json:"device_api_key,omitempty"`
	Status        DeviceState `gorm:"type:varchar(32);not null;default:offline" json:"estado_actual"`
	LastHeartbeat *time.Time  `json:"last_heartbeat"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Configuration *Configuration `gorm:"foreignKey:DeviceID" json:"configuracion,omitempty"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.APIKey == "" {
		d.APIKey, err = NewAPIKey()
		if err != nil {
			return err
		}
	}
	if d.Status == "" {
		d.Status = StateOffline
	}
	return nil
}

// NewAPIKey returns 32 random bytes hex encoded.
func NewAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Stale reports whether the heartbeat is missing or older than timeout at now.
func (d *Device) Stale(now time.Time, timeout time.Duration) bool {
	if d.LastHeartbeat == nil {
		return true
	}
	return now.Sub(*d.LastHeartbeat) > timeout
}
