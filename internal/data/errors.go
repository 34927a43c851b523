package data

import "errors"

// ErrConfig marks failures caused by invalid inputs: mismatched array
// lengths, labels outside {0,1}, bad sizes, malformed vocabularies.
// IO failures (unreadable files, corrupt archives) are returned as
// wrapped errors without this mark, so callers can tell the two
// classes apart with errors.Is.
var ErrConfig = errors.New("invalid dataset configuration")
