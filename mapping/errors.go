package mapping

import "errors"

var (
	ErrDuplicateObf   = errors.New("duplicate obfuscated name")
	ErrDuplicateDeobf = errors.New("duplicate deobfuscated name")
	ErrInvalidName    = errors.New("invalid name")
	ErrNotFound       = errors.New("mapping not found")
	ErrMalformed      = errors.New("malformed entry")
)
