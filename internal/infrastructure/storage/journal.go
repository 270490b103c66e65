package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	journalMagic   string = `ATRJ` // 4 байта
	journalVersion uint32 = 1
)

// journalFileHeader - глобальный заголовок файла журнала.
type journalFileHeader struct {
	Magic      [4]byte
	Version    uint32
	Seed       int64
	Started    int64 // Unix seconds
	EntryCount int32
}

// entryHeader - заголовок каждой записи команды.
type entryHeader struct {
	Tick       uint64
	Entity     int64
	Type       uint8
	PayloadLen uint16
}

// JournalEntry - одна примененная команда. Payload - сериализованные
// параметры команды; журнал их не интерпретирует.
type JournalEntry struct {
	Tick    uint64
	Entity  int64
	Type    uint8
	Payload []byte
}

// Journal - лента всех команд, примененных за один запуск мира.
// Достаточна для оффлайн-воспроизведения: та же сетка получается из
// Seed, а команды детерминированно переигрываются по тикам.
type Journal struct {
	Seed    int64
	Started int64
	Entries []JournalEntry
}

// Record добавляет запись в ленту.
func (j *Journal) Record(tick uint64, entity int64, cmdType uint8, payload []byte) {
	j.Entries = append(j.Entries, JournalEntry{
		Tick:    tick,
		Entity:  entity,
		Type:    cmdType,
		Payload: payload,
	})
}

// Save пишет журнал в dir бинарным форматом .atj.
func (j *Journal) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create journal dir")
	}

	filename := fmt.Sprintf("alterrain_%d_%d.atj", j.Seed, j.Started)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create journal file")
	}
	defer f.Close()

	if err := writeJournal(f, j); err != nil {
		return "", err
	}
	return path, nil
}

func writeJournal(w io.Writer, j *Journal) error {
	header := journalFileHeader{
		Version:    journalVersion,
		Seed:       j.Seed,
		Started:    j.Started,
		EntryCount: int32(len(j.Entries)),
	}
	copy(header.Magic[:], journalMagic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return errors.Wrap(err, "write journal header")
	}

	for i, e := range j.Entries {
		if len(e.Payload) > 65535 {
			return errors.Errorf("entry %d: payload too long: %d", i, len(e.Payload))
		}

		eh := entryHeader{
			Tick:       e.Tick,
			Entity:     e.Entity,
			Type:       e.Type,
			PayloadLen: uint16(len(e.Payload)),
		}
		if err := binary.Write(w, binary.LittleEndian, &eh); err != nil {
			return errors.Wrapf(err, "write entry %d header", i)
		}
		if len(e.Payload) > 0 {
			if _, err := w.Write(e.Payload); err != nil {
				return errors.Wrapf(err, "write entry %d payload", i)
			}
		}
	}

	return nil
}

// LoadJournal читает журнал из файла .atj.
func LoadJournal(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open journal file")
	}
	defer f.Close()

	return readJournal(f)
}

func readJournal(r io.Reader) (*Journal, error) {
	var header journalFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read journal header")
	}

	if string(header.Magic[:]) != journalMagic {
		return nil, errors.New("invalid journal magic")
	}
	if header.Version != journalVersion {
		return nil, errors.Errorf("unsupported journal version: %d", header.Version)
	}

	j := &Journal{
		Seed:    header.Seed,
		Started: header.Started,
		Entries: make([]JournalEntry, 0, header.EntryCount),
	}

	for i := 0; i < int(header.EntryCount); i++ {
		var eh entryHeader
		if err := binary.Read(r, binary.LittleEndian, &eh); err != nil {
			return nil, errors.Wrapf(err, "read entry %d header", i)
		}

		entry := JournalEntry{
			Tick:   eh.Tick,
			Entity: eh.Entity,
			Type:   eh.Type,
		}
		if eh.PayloadLen > 0 {
			entry.Payload = make([]byte, eh.PayloadLen)
			if _, err := io.ReadFull(r, entry.Payload); err != nil {
				return nil, errors.Wrapf(err, "read entry %d payload", i)
			}
		}
		j.Entries = append(j.Entries, entry)
	}

	return j, nil
}
