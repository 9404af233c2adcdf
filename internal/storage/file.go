package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/repository"
)

// Document - одна JSON-запись в файле. Все операции с файлом
// сериализуются мьютексом документа.
type Document[T any] struct {
	path string
	mu   sync.RWMutex
}

// NewDocument создаёт документ, хранящийся по пути path.
func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

// Path возвращает путь к файлу документа.
func (d *Document[T]) Path() string {
	return d.path
}

// Load читает запись. Отсутствующий или пустой файл - repository.ErrNotFound.
func (d *Document[T]) Load() (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.load()
}

// Save атомарно заменяет запись целиком.
func (d *Document[T]) Save(value T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save(value)
}

// Update выполняет чтение-изменение-запись под одной блокировкой.
// found=false, если записи ещё нет; тогда fn получает нулевое значение.
// Если fn вернула ошибку, файл не изменяется.
func (d *Document[T]) Update(fn func(value *T, found bool) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	value, err := d.load()
	found := true
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		found = false
	}
	if err := fn(&value, found); err != nil {
		return err
	}
	return d.save(value)
}

func (d *Document[T]) load() (T, error) {
	var value T
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return value, repository.ErrNotFound
		}
		return value, fmt.Errorf("ошибка чтения файла %s: %w", d.path, err)
	}
	if len(data) == 0 {
		return value, repository.ErrNotFound
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("ошибка разбора JSON в файле %s: %w", d.path, err)
	}
	return value, nil
}

func (d *Document[T]) save(value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации для файла %s: %w", d.path, err)
	}
	return writeFileAtomic(d.path, data)
}

// Log - JSON-массив в файле, в который только добавляют записи.
// Хранятся не более limit последних записей, старые отбрасываются первыми.
type Log[T any] struct {
	doc   *Document[[]T]
	limit int
}

// NewLog создаёт журнал с ограничением limit; limit <= 0 - без ограничения.
func NewLog[T any](path string, limit int) *Log[T] {
	return &Log[T]{doc: NewDocument[[]T](path), limit: limit}
}

// Append добавляет запись и обрезает журнал до лимита.
func (l *Log[T]) Append(entry T) error {
	return l.doc.Update(func(entries *[]T, found bool) error {
		if !found {
			logging.Logger.Debug("Журнал создаётся впервые", zap.String("path", l.doc.Path()))
		}
		*entries = append(*entries, entry)
		if l.limit > 0 && len(*entries) > l.limit {
			*entries = append([]T(nil), (*entries)[len(*entries)-l.limit:]...)
		}
		return nil
	})
}

// List возвращает все записи в порядке добавления. Отсутствующий или
// повреждённый файл читается как пустой журнал.
func (l *Log[T]) List() []T {
	entries, err := l.doc.Load()
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Logger.Warn("Журнал не прочитан, используется пустой список",
				zap.String("path", l.doc.Path()), zap.Error(err))
		}
		return []T{}
	}
	return entries
}

// writeFileAtomic пишет данные во временный файл и переименовывает его,
// так что читатели никогда не видят частично записанный файл.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после успешного rename файла уже нет

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи во временный файл: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка синхронизации временного файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ошибка замены файла %s: %w", path, err)
	}
	return nil
}
