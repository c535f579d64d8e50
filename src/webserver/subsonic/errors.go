package subsonic

import (
	"errors"
	"fmt"

	"github.com/sonicd/sonicd/src/delivery"
	"github.com/sonicd/sonicd/src/library"
)

type apiErrorCode int

// Error codes defined in the Subsonic API documentation.
const (
	errCodeGeneric          apiErrorCode = 0
	errCodeMissingParameter apiErrorCode = 10
	errCodeVersionClient    apiErrorCode = 20
	errCodeVersionServer    apiErrorCode = 30
	errCodeWrongUserOrPass  apiErrorCode = 40
	errCodeTokenAuthLDAP    apiErrorCode = 41
	errCodeNotAuthorized    apiErrorCode = 50
	errCodeNotFound         apiErrorCode = 70
)

var (
	errUnknownFolder = fmt.Errorf("unknown music folder: %w", library.ErrNotFound)
	errUnknownID     = fmt.Errorf("unknown ID: %w", library.ErrNotFound)
)

// errorCode maps errors of the library and the delivery pipeline to API
// error codes.
func errorCode(err error) apiErrorCode {
	switch {
	case errors.Is(err, errMissingParameter):
		return errCodeMissingParameter
	case errors.Is(err, library.ErrNotFound), errors.Is(err, delivery.ErrSourceMissing):
		return errCodeNotFound
	case errors.Is(err, library.ErrNotAuthorized):
		return errCodeNotAuthorized
	case errors.Is(err, library.ErrWrongPassword):
		return errCodeWrongUserOrPass
	default:
		return errCodeGeneric
	}
}
