package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"lumen/internal/defs"
)

// Current schema version - increment when ItemPayload format changes
const itemCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 content hash used as a cache key.
type Digest [sha256.Size]byte

// DiskCache хранит итоги элаборации элементов на диске, по одному файлу
// на ключ. Это локальный кеш цикла разработки, не межмодульный формат.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// ItemPayload stores one item's cached elaboration summary. Interner IDs are
// process-local and never cached; only rendered output survives a restart.
type ItemPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name      string
	Signature string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve cache dir")
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt uses an explicit directory. Tests point it at t.TempDir().
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства читаемости и очистки кладём всё в подкаталог "items".
	return filepath.Join(c.dir, "items", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *ItemPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck // missing after rename

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key Digest, out *ItemPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close() //nolint:errcheck // read-only handle

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим в фоне
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// moduleDigest хеширует исходный текст всех элементов модуля по порядку.
// Любая правка модуля меняет ключи всех его элементов: консервативно, зато
// не нужен граф зависимостей между объявлениями.
func moduleDigest(m Module) Digest {
	h := sha256.New()
	for _, def := range m.Items {
		h.Write(itemText(m, def))
		h.Write([]byte{0})
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// itemKey derives an item's cache key from the module digest and its own text.
func (e *elaborator) itemKey(def defs.DefID) Digest {
	h := sha256.New()
	h.Write(e.moduleKey[:])
	h.Write(itemText(e.m, def))
	var d Digest
	h.Sum(d[:0])
	return d
}

func itemText(m Module, def defs.DefID) []byte {
	sp := m.Table.Span(def)
	file := m.FS.Get(sp.File)
	if file == nil || int(sp.End) > len(file.Content) || sp.Start > sp.End {
		return nil
	}
	return file.Content[sp.Start:sp.End]
}
