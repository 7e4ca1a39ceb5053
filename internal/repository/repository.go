package repository

import "errors"

// ErrNotFound is returned by updates that matched no document. Reads return
// nil, nil on a miss instead.
var ErrNotFound = errors.New("document not found")
