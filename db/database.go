package db

import "gorm.io/gorm"

type Database interface {
	GetDB() *gorm.DB
	Close() error
}

type GormDatabase struct {
	DB *gorm.DB

	stop func() error
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Close releases the pool and stops the embedded server if one was started.
func (g *GormDatabase) Close() error {
	if sqlDB, err := g.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if g.stop != nil {
		return g.stop()
	}
	return nil
}
