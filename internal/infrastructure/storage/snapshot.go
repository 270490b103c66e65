package storage

import (
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
	"github.com/pkg/errors"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

var snapshotBucket = []byte("snapshots")

// ErrSnapshotNotFound - снапшота с таким идентификатором нет в базе.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// BoltStore хранит снапшоты сеток тайлов в bbolt-файле.
// Движок видит его через интерфейс engine.SnapshotStore.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore открывает (или создает) файл базы.
func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create snapshot bucket")
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveTiles кодирует и записывает сетку под ключом id.
func (s *BoltStore) SaveTiles(id string, tiles [][]domain.TileType) error {
	data, err := EncodeTiles(tiles)
	if err != nil {
		return errors.Wrapf(err, "encode snapshot %q", id)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(id), data)
	})
	return errors.Wrapf(err, "put snapshot %q", id)
}

// LoadTiles читает и декодирует сетку по ключу id.
func (s *BoltStore) LoadTiles(id string) ([][]domain.TileType, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get([]byte(id))
		if v == nil {
			return ErrSnapshotNotFound
		}
		// Копия: данные bbolt валидны только внутри транзакции
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tiles, err := DecodeTiles(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %q", id)
	}
	return tiles, nil
}
