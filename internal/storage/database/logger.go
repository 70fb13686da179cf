package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// gormLogger направляет вывод gorm (SQL и ошибки драйвера) в zap вместо stdout
type gormLogger struct {
	logger *zap.Logger
}

// Print получает значения в формате gorm v1: уровень ("sql", "log", "error"), место вызова, детали
func (l gormLogger) Print(v ...interface{}) {
	if len(v) == 0 {
		return
	}

	level := fmt.Sprint(v[0])
	fields := []zap.Field{zap.String("kind", level)}
	if len(v) > 1 {
		fields = append(fields, zap.String("source", fmt.Sprint(v[1])))
	}
	if len(v) > 2 {
		fields = append(fields, zap.String("details", fmt.Sprint(v[2:]...)))
	}

	// значимые ошибки уже логирует classify, здесь достаточно debug
	l.logger.Debug("gorm", fields...)
}

// UseLogger подключает zap к соединению gorm
func UseLogger(db *gorm.DB, logger *zap.Logger) {
	db.SetLogger(gormLogger{logger: logger.Named("gorm")})
}
