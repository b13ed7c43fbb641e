package entities

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Configuration is the 1:1 irrigation setup of a device.
type Configuration struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeviceID        string    `gorm:"uniqueIndex;type:varchar(36);not null" json:"device_id"`
	AutoMode        bool      `gorm:"not null" json:"modo_automatico"`
	ActiveProfileID *string   `gorm:"type:varchar(36)" json:"perfil_activo_id"`
	ActiveProfile   *Profile  `gorm:"foreignKey:ActiveProfileID" json:"perfil_activo,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Configuration) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Profile is a reusable threshold band plus watering duration.
type Profile struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string    `gorm:"index;type:varchar(36);not null" json:"user_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"nombre_perfil"`
	Description     string    `gorm:"type:text" json:"descripcion"`
	MinMoisture     int       `gorm:"not null" json:"umbral_humedad_min"`
	MaxMoisture     int       `gorm:"not null" json:"umbral_humedad_max"`
	DurationSeconds int       `gorm:"not null" json:"duracion_riego_seg"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

var ErrInvalidProfile = errors.New("invalid profile")

// Validate enforces min < max within 0..100 and a positive duration.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: nombre_perfil is required", ErrInvalidProfile)
	}
	if p.MinMoisture < 0 || p.MaxMoisture > 100 {
		return fmt.Errorf("%w: thresholds must be within 0-100", ErrInvalidProfile)
	}
	if p.MinMoisture >= p.MaxMoisture {
		return fmt.Errorf("%w: umbral_humedad_min (%d) must be lower than umbral_humedad_max (%d)",
			ErrInvalidProfile, p.MinMoisture, p.MaxMoisture)
	}
	if p.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duracion_riego_seg must be positive", ErrInvalidProfile)
	}
	return nil
}

// Schedule is the weekly watering plan of a device. One row per device.
type Schedule struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DeviceID  string    `gorm:"uniqueIndex;type:varchar(36);not null" json:"device_id"`
	ProfileID string    `gorm:"type:varchar(36);not null" json:"perfil_id"`
	Profile   *Profile  `gorm:"foreignKey:ProfileID" json:"perfil,omitempty"`
	TimeOfDay string    `gorm:"type:varchar(5);not null" json:"hora_riego"`
	Weekdays  string    `gorm:"type:varchar(15);not null" json:"dias_semana"`
	Active    bool      `gorm:"not null" json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Schedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

var ErrInvalidSchedule = errors.New("invalid schedule")

// ParseTimeOfDay normalises "H:MM" / "HH:MM[:SS]" to "HH:MM".
func ParseTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: hora_riego %q is not HH:MM", ErrInvalidSchedule, s)
}

// EncodeWeekdays validates ISO weekday codes (1=Mon..7=Sun) and stores them
// sorted and de-duplicated as "1,3,5".
func EncodeWeekdays(days []int) (string, error) {
	if len(days) == 0 {
		return "", fmt.Errorf("%w: at least one weekday is required", ErrInvalidSchedule)
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 1 || d > 7 {
			return "", fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidSchedule, d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}

// Days decodes Weekdays. Malformed codes are skipped.
func (s *Schedule) Days() []int {
	days := []int{}
	for _, part := range strings.Split(s.Weekdays, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 1 || d > 7 {
			continue
		}
		days = append(days, d)
	}
	return days
}
