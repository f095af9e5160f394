package model

import "errors"

var ErrorInvalidArgument = errors.New("invalid argument")
var ErrorNotFound = errors.New("not found")
var ErrorPermissionDenied = errors.New("permission denied")
var ErrorUnauthenticated = errors.New("unauthenticated")
var ErrorAlreadyVoted = errors.New("already voted")
var ErrorInvalidNonce = errors.New("invalid nonce")
var ErrorUnavailable = errors.New("unavailable")
