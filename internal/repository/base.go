package repository

import (
	"conduit/internal/database"

	"gorm.io/gorm"
)

// readDB routes list reads to the replica when one is connected.
func readDB(primary *gorm.DB) *gorm.DB {
	if database.ReadDB != nil {
		return database.ReadDB
	}
	return primary
}
