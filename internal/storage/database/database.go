package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/config"
	"github.com/VitaminP8/blog/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Open подключается к хранилищу, выбранному в конфиге
func Open(cfg config.Config) (*gorm.DB, error) {
	switch cfg.Storage {
	case "postgres":
		return OpenPostgres(cfg.DB)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage)
	}
}

func OpenPostgres(c config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
	return OpenPostgresDSN(dsn)
}

func OpenPostgresDSN(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return db, nil
}

// OpenSQLite открывает файл (или ":memory:") с включенными внешними ключами.
// Соединение одно: sqlite пишет в один поток, а ":memory:" иначе разъедется по соединениям.
func OpenSQLite(path string) (*gorm.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := gorm.Open("sqlite3", path+sep+"_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.DB().SetMaxOpenConns(1)

	return db, nil
}

// Migrate создает таблицы в порядке зависимостей внешних ключей
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostImage{},
		&models.PostComment{},
		&models.PostLike{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if db.Dialect().GetName() != "postgres" {
		return nil
	}

	// в postgres внешние ключи добавляются отдельно, sqlite не умеет ALTER TABLE ADD CONSTRAINT
	foreignKeys := []struct {
		model  interface{}
		field  string
		target string
	}{
		{&models.Post{}, "user_id", "users(id)"},
		{&models.PostImage{}, "post_id", "posts(id)"},
		{&models.PostComment{}, "post_id", "posts(id)"},
		{&models.PostComment{}, "user_id", "users(id)"},
		{&models.PostLike{}, "post_id", "posts(id)"},
		{&models.PostLike{}, "user_id", "users(id)"},
	}
	for _, fk := range foreignKeys {
		err = db.Model(fk.model).AddForeignKey(fk.field, fk.target, "RESTRICT", "RESTRICT").Error
		if err != nil {
			return fmt.Errorf("failed to add foreign key %s -> %s: %w", fk.field, fk.target, err)
		}
	}

	return nil
}

// Close закрывает соединение с базой данных
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	err := db.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}
	return nil
}

// isUniqueViolation распознает нарушение уникальности/первичного ключа у обоих драйверов
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

// isConstraintViolation - любое нарушение ограничения (внешний ключ, уникальность, not null)
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}

// isDomainError - ошибка уже классифицирована и уходит наверх как есть
func isDomainError(err error) bool {
	for _, target := range []error{
		apperr.ErrNotFound,
		apperr.ErrForbidden,
		apperr.ErrValidation,
		apperr.ErrRejectedExtension,
		apperr.ErrDuplicateUsername,
		apperr.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classify переводит ошибки драйвера в доменные; подробности нарушения ограничений только в лог
func classify(logger *zap.Logger, op string, err error) error {
	if isDomainError(err) {
		return err
	}
	if isConstraintViolation(err) {
		logger.Error("constraint violation", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("could not %s: %w", op, apperr.ErrConflict)
	}
	return fmt.Errorf("could not %s: %w", op, err)
}

func findPost(db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := db.First(&post, id).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("post %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}
	return &post, nil
}
