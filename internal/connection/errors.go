package connection

import "errors"

var errNotConnected = errors.New("connection: not connected")
