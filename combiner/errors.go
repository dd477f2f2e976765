package combiner

import (
	"github.com/pkg/errors"
)

// Failure conditions. Returned errors wrap one of these with context; test
// with errors.Cause or errors.Is.
var (
	ErrNoSources         = errors.New("combiner: no source instances")
	ErrInvalidSourceMesh = errors.New("combiner: invalid source mesh")
	ErrCapacityExceeded  = errors.New("combiner: capacity exceeded")
)

func invalidSource(src int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidSourceMesh, "source %d: "+format, append([]interface{}{src}, args...)...)
}
