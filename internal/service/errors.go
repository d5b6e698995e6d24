package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusNotFound is the only domain error a snapshot build returns.
	ErrBusNotFound = fmt.Errorf("bus %w", ErrNotFound)
)
