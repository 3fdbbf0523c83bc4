// pkg/plugin_err/wrap.go

package plugin_err

import (
	cerr "github.com/cockroachdb/errors"
)

func WrapValidationError(err error) error {
	return cerr.WithHint(cerr.WithStack(err), "validation failed")
}

func WrapSaltAPIError(err error) error {
	return cerr.WithHint(cerr.WithStack(err), "check that salt-api is reachable and the credentials are accepted")
}
