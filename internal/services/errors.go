package services

import (
	"errors"
	"fmt"
)

// Fatal parse error kinds
var (
	// ErrIO an artifact file or directory could not be read
	ErrIO = errors.New("IO error")

	// ErrYAML the sprint-status file exists but is not valid YAML
	ErrYAML = errors.New("YAML parse error")

	// ErrInvalidStructure no artifacts directory could be resolved
	ErrInvalidStructure = errors.New("invalid BMAD structure")
)

func ioError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
}

func yamlError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrYAML, path, err)
}

func structureError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidStructure, fmt.Sprintf(format, args...))
}
