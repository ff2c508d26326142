package database

import (
	"context"
	"fmt"
	"strings"

	"conduit/internal/config"
	"conduit/internal/middleware"
	"conduit/internal/models"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will do for a configuration.
type SchemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// SchemaStatus is the output of GetSchemaStatus.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves DB_SCHEMA_MODE against the driver and environment.
//
//   - sqlite: AutoMigrate in every mode, the SQL scripts are PostgreSQL DDL.
//   - sql: migrations only.
//   - auto: AutoMigrate only; production-like environments must opt in
//     with DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE.
//   - hybrid (default): migrations, then AutoMigrate outside production.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	switch plan.Mode {
	case SchemaModeSQL, SchemaModeAuto, SchemaModeHybrid:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}

	if cfg.DBDriver == "sqlite" {
		plan.RunAuto = true
		return plan, nil
	}

	prodLike := isProdLikeEnv(cfg.Env)
	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL = true
		plan.RunAuto = !prodLike
	}
	return plan, nil
}

// AutoMigrate creates or updates every persistent table from the models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Article{}, "Tags", &models.ArticleTag{}); err != nil {
		return fmt.Errorf("setup article_tags join table: %w", err)
	}
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		n, err := NewMigrator(db).Up(ctx)
		if err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		middleware.Logger.InfoContext(ctx, "sql migrations up to date", "applied", n)
	}

	if plan.RunAuto {
		if plan.Mode == SchemaModeAuto && isProdLikeEnv(cfg.Env) {
			middleware.Logger.WarnContext(ctx, "running AutoMigrate in a production-like environment", "env", cfg.Env)
		}
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the schema plan and, when migrations run, which are applied or pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.RunSQL,
		WillRunAutoMigrate: plan.RunAuto,
	}
	if !plan.RunSQL {
		return status, nil
	}

	m := NewMigrator(db)
	logs, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		status.AppliedVersions = append(status.AppliedVersions, l.Version)
	}
	status.PendingMigrations = m.pending(logs)
	return status, nil
}
