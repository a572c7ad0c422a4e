package sl

import (
	"io"
	"log/slog"
)

// New возвращает текстовый логгер: в окружении local пишет отладочные сообщения,
// в остальных только info и выше.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
