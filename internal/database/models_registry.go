package database

import "conduit/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Referenced tables come before the tables that reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Article{},
		&models.ArticleTag{},
		&models.Favorite{},
		&models.Comment{},
	}
}
