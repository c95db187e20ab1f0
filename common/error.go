package common

import (
	"errors"
	"fmt"
)

// IllegalPathError is returned when an archive entry would be written
// outside of the directory it is being extracted to.
type IllegalPathError struct {
	AbsolutePath string
	Filename     string
}

func (err *IllegalPathError) Error() string {
	return fmt.Sprintf("illegal file path: %s", err.Filename)
}

// IsIllegalPathError returns true if err is, or wraps, an IllegalPathError.
func IsIllegalPathError(err error) bool {
	var ipe *IllegalPathError
	return errors.As(err, &ipe)
}
