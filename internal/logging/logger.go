package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger пишет сообщения в консоль и в файл компонента.
// В файл попадают все уровни начиная с minFileLevel,
// в консоль — начиная с minConsoleLevel.
type Logger struct {
	mu              sync.Mutex
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

var (
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// NewLogger создаёт логгер компонента с файлом logs/<component>_<ts>.log.
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории logs: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join("logs", fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// InitDefaultLogger инициализирует глобальный логгер процесса.
// Повторные вызовы безопасны и ничего не делают.
func InitDefaultLogger(component string) error {
	var err error
	defaultOnce.Do(func() {
		defaultLogger, err = NewLogger(component)
	})
	return err
}

// CloseDefaultLogger закрывает глобальный логгер.
func CloseDefaultLogger() {
	if defaultLogger != nil {
		_ = defaultLogger.Close()
	}
}

// Close закрывает файл логгера.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevels задаёт минимальные уровни для консоли и файла.
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] %s", level.String(), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Tracef логирует сообщение уровня TRACE.
func (l *Logger) Tracef(format string, args ...interface{}) { l.logf(TRACE, format, args...) }

// Debugf логирует сообщение уровня DEBUG.
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(DEBUG, format, args...) }

// Infof логирует сообщение уровня INFO.
func (l *Logger) Infof(format string, args ...interface{}) { l.logf(INFO, format, args...) }

// Warnf логирует сообщение уровня WARN.
func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(WARN, format, args...) }

// Errorf логирует сообщение уровня ERROR.
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(ERROR, format, args...) }

// Пакетные функции используют глобальный логгер; до инициализации
// пишут только в stdout, чтобы ранние сообщения не терялись.

func logDefault(level LogLevel, format string, args ...interface{}) {
	if defaultLogger == nil {
		if level >= INFO {
			log.Printf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
		}
		return
	}
	defaultLogger.logf(level, format, args...)
}

// Trace логирует через глобальный логгер.
func Trace(format string, args ...interface{}) { logDefault(TRACE, format, args...) }

// Debug логирует через глобальный логгер.
func Debug(format string, args ...interface{}) { logDefault(DEBUG, format, args...) }

// Info логирует через глобальный логгер.
func Info(format string, args ...interface{}) { logDefault(INFO, format, args...) }

// Warn логирует через глобальный логгер.
func Warn(format string, args ...interface{}) { logDefault(WARN, format, args...) }

// Error логирует через глобальный логгер.
func Error(format string, args ...interface{}) { logDefault(ERROR, format, args...) }
