package core

import (
	"errors"
)

var (
	ErrTextureTooLarge   = errors.New("texture exceeds the maximum atlas texture size")
	ErrAtlasFull         = errors.New("no atlas capacity left for texture")
	ErrTextureLoadFailed = errors.New("texture failed to load")
	ErrNoTexturePath     = errors.New("no path registered for texture")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrShutdown          = errors.New("system already shut down")
	ErrUnknown           = errors.New("unknown")
)
