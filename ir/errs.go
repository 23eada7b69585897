package ir

import "errors"

var (
	ErrParse    = errors.New("path parse error")
	ErrNotFound = errors.New("path not found")
	ErrType     = errors.New("unexpected value type")
)
