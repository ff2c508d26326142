package repository

import (
	"errors"
	"regexp"
	"strings"

	"conduit/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Unique index names from the SQL migrations and the GORM tags, mapped to the
// field reported back to callers.
var constraintFields = map[string]string{
	"idx_users_email":            "email",
	"idx_users_username":         "username",
	"idx_articles_title":         "title",
	"idx_articles_slug":          "slug",
	"idx_tags_name":              "name",
	"idx_follows_pair":           "follower_id",
	"idx_favorites_user_article": "user_id",
}

var (
	pgKeyDetail       = regexp.MustCompile(`Key \(([^)]+)\)=`)
	pgConstraintName  = regexp.MustCompile(`unique constraint "([^"]+)"`)
	sqliteUniqueError = regexp.MustCompile(`(?:UNIQUE|PRIMARY KEY) constraint failed: (.+)$`)
)

// uniqueViolation reports whether err is a unique-constraint violation and,
// when the driver says so, which column caused it. Unknown error shapes give
// ok=false; recognised violations with an unparseable message give an empty field.
func uniqueViolation(err error) (field string, ok bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); m != nil {
			return firstColumn(m[1]), true
		}
		return constraintFields[pgErr.ConstraintName], true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != sqlite3.ErrConstraintUnique && liteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return "", false
		}
		if m := sqliteUniqueError.FindStringSubmatch(liteErr.Error()); m != nil {
			return firstColumn(m[1]), true
		}
		return "", true
	}

	// Errors that lost their driver type on the way up still carry the text.
	msg := err.Error()
	if m := sqliteUniqueError.FindStringSubmatch(msg); m != nil {
		return firstColumn(m[1]), true
	}
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		if m := pgKeyDetail.FindStringSubmatch(msg); m != nil {
			return firstColumn(m[1]), true
		}
		if m := pgConstraintName.FindStringSubmatch(msg); m != nil {
			return constraintFields[m[1]], true
		}
		return "", true
	}
	return "", false
}

// foreignKeyViolation reports whether err says a referenced row is missing,
// typically because it was deleted concurrently.
func foreignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// firstColumn turns "users.email" or "follower_id, followee_id" into a bare column name.
func firstColumn(cols string) string {
	first, _, _ := strings.Cut(cols, ",")
	first = strings.TrimSpace(first)
	if i := strings.LastIndex(first, "."); i >= 0 {
		first = first[i+1:]
	}
	return strings.Trim(first, `"`)
}

// translateWriteError maps a failed write to a Conflict naming the column,
// or an internal error.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if field, ok := uniqueViolation(err); ok {
		return models.NewConflictError(field, err)
	}
	return models.NewInternalError(err)
}

// translateReadError maps gorm.ErrRecordNotFound to NotFound(resource, key).
func translateReadError(err error, resource string, key any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, key)
	}
	return models.NewInternalError(err)
}
