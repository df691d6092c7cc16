package server

import (
	"errors"

	"github.com/Suhaibinator/SServ/pkg/common"
)

var (
	// ErrAlreadyListening is returned by Listen when the server is already bound.
	ErrAlreadyListening = errors.New("server is already listening")

	// ErrInvalidPort is wrapped when Listen cannot parse its port argument.
	ErrInvalidPort = common.ErrInvalidPort

	// ErrNilErrorHandler is wrapped when OnError is given a nil handler.
	ErrNilErrorHandler = common.ErrNilErrorHandler
)
