package fragments

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedType is returned when a content type is not in the allow-list
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrUnsupportedConversion is returned when a fragment cannot be rendered in the requested format
	ErrUnsupportedConversion = fmt.Errorf("%w: unsupported conversion", ErrUnsupportedType)
	// ErrNotFound is returned when a fragment or its payload does not exist
	ErrNotFound = errors.New("not found")
	// ErrStorage is returned when a backing store fails
	ErrStorage = errors.New("storage error")
	// ErrConversion is returned when a renderer fails on the stored payload
	ErrConversion = errors.New("conversion failed")
)
