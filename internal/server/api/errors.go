package api

import "errors"

var errNotFound = errors.New("route not found")
