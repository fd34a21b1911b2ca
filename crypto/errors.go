package crypto

import "errors"

// ErrInvalidSignature is returned when a signature's r or s component is
// not a valid scalar on the curve.
var ErrInvalidSignature = errors.New("crypto: invalid signature")
