package graph

import "errors"

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrCycle        = errors.New("graph contains a cycle")
	ErrCorruptGraph = errors.New("corrupt graph document")
)
