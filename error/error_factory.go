package error

import "errors"

var (
	NoSuchProcess     = errors.New("no such process")
	MalformedMapEntry = errors.New("malformed map entry")
	RemoteReadFailed  = errors.New("remote read failed")
	RemoteWriteFailed = errors.New("remote write failed")
	RegionAbsent      = errors.New("region absent")
	RegionNotFound    = errors.New("region not found")
	ReplacementSize   = errors.New("replacement size does not match chunk size")
	FreezeSelf        = errors.New("cannot freeze own process")
	Unsupported       = errors.New("remote memory access not supported on this platform")
	InvalidExpression = errors.New("invalid expression")
)
