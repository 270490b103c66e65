package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего сервера.
// До вызова Init работает с настройками logrus по умолчанию, поэтому
// пакеты (и их тесты) могут логировать без явной инициализации.
var Log = logrus.New()

// Init настраивает глобальный логгер из окружения.
// Вызывается один раз при старте приложения в main.go.
func Init() {
	// Уровень логирования берем из окружения. По умолчанию "info",
	// для отладки симуляции удобно выставить "debug" (потиковые логи).
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// Форматтер: "json" для продакшена и сбора логов, текст для разработки.
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}

// WithComponent возвращает логгер с меткой подсистемы (engine, hub, storage...).
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
