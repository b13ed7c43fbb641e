package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a SIAR dashboard account
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"nombre_usuario"`
	Email        string    `gorm:"unique;not null" json:"email"`
	FullName     string    `gorm:"not null" json:"nombre_completo"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Phone        string    `json:"telefono,omitempty"`
	Address      string    `json:"direccion,omitempty"`
	City         string    `json:"ciudad,omitempty"`
	CountryCode  string    `gorm:"type:varchar(2)" json:"pais,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
