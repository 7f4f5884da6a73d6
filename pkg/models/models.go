package models

// AllModels returns every entity for GORM AutoMigrate, in dependency order.
func AllModels() []any {
	return []any{
		&User{},
		&ActivityLog{},
		&Comment{},
	}
}
