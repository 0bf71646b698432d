package vo

import "errors"

var ErrInvalidCredentials = errors.New("invalid credentials")
