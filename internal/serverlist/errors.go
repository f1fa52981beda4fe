package serverlist

import "errors"

var (
	// ErrMalformedLine is returned when a server line has fewer than MinFields fields.
	ErrMalformedLine = errors.New("server line has too few fields")
	// ErrInvalidField is returned when a numeric field cannot be parsed or is out of range.
	ErrInvalidField = errors.New("server line contains an invalid field")
)
