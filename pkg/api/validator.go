package api

import "errors"

// Validator - интерфейс, который могут реализовать параметры команд
type Validator interface {
	Validate() error
}

func (p MoveParams) Validate() error {
	if p.Dir < 0 || p.Dir > 3 {
		return errors.New("dir must be one of 0..3")
	}
	return nil
}

func (p AlterTileParams) Validate() error {
	if p.Tile < 0 || p.Tile > 255 {
		return errors.New("tile out of range")
	}
	return nil
}

func (p CommunicateParams) Validate() error {
	if p.Sound == "" {
		return errors.New("sound is required")
	}
	if len(p.Sound) > 32 {
		return errors.New("sound label too long")
	}
	return nil
}
