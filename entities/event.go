package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventSensorWatering    = "riego_sensor"
	EventScheduledWatering = "riego_programado"
	WateringEventPrefix    = "riego"
	StateEventPrefix       = "estado_"
)

// Event is an append-only device log entry.
type Event struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeviceID        string    `gorm:"index;type:varchar(36);not null" json:"device_id"`
	Type            string    `gorm:"type:varchar(50);not null" json:"tipo_evento"`
	Description     string    `gorm:"type:text" json:"descripcion"`
	DurationSeconds *float64  `json:"duracion_seg,omitempty"`
	Timestamp       time.Time `gorm:"index" json:"timestamp"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}

// MoistureReading is a soil humidity sample reported by a device.
type MoistureReading struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeviceID  string    `gorm:"index;type:varchar(36);not null" json:"device_id"`
	Value     float64   `gorm:"not null" json:"valor_humedad"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

func (r *MoistureReading) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}
