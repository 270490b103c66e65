package storage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

const (
	snapshotMagic   string = `ATSN` // 4 байта
	snapshotVersion uint32 = 1
)

// snapshotHeader - точное представление заголовка снапшота в памяти.
// binary.Write пишет его целиком: только числа и массивы, без слайсов.
type snapshotHeader struct {
	Magic   [4]byte
	Version uint32
	Width   int32
	Height  int32
}

// EncodeTiles сериализует сетку тайлов: заголовок + по байту на клетку
// в row-major порядке.
func EncodeTiles(tiles [][]domain.TileType) ([]byte, error) {
	height := len(tiles)
	width := 0
	if height > 0 {
		width = len(tiles[0])
	}

	header := snapshotHeader{
		Version: snapshotVersion,
		Width:   int32(width),
		Height:  int32(height),
	}
	copy(header.Magic[:], snapshotMagic)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "write snapshot header")
	}

	row := make([]byte, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			row[x] = byte(tiles[y][x])
		}
		if _, err := buf.Write(row); err != nil {
			return nil, errors.Wrap(err, "write tile row")
		}
	}

	return buf.Bytes(), nil
}

// DecodeTiles восстанавливает сетку из байтов. Нераспознанные значения
// тайлов делают снапшот невалидным: загрузчик откатится на генерацию.
func DecodeTiles(data []byte) ([][]domain.TileType, error) {
	r := bytes.NewReader(data)

	var header snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read snapshot header")
	}

	if string(header.Magic[:]) != snapshotMagic {
		return nil, errors.New("invalid snapshot magic")
	}
	if header.Version != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version: %d", header.Version)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, errors.Errorf("invalid snapshot dimensions %dx%d", header.Width, header.Height)
	}

	width := int(header.Width)
	height := int(header.Height)

	tiles := make([][]domain.TileType, height)
	row := make([]byte, width)
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, errors.Wrapf(err, "read tile row %d", y)
		}
		tiles[y] = make([]domain.TileType, width)
		for x := 0; x < width; x++ {
			if !domain.ValidTile(row[x]) {
				return nil, errors.Errorf("unknown tile %d at (%d,%d)", row[x], x, y)
			}
			tiles[y][x] = domain.TileType(row[x])
		}
	}

	return tiles, nil
}
