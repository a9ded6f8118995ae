package validate

import (
	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// Wrap runs check and translates any failure into a *core.Error tagged
// with component, so callers see a module-specific error regardless of
// which predicate failed.
//
// Example:
//
//	err := validate.Wrap(core.ComponentCache, func() error {
//	    return validate.NonEmptyString("cache_key", key)
//	})
func Wrap(component string, check func() error) error {
	if check == nil {
		return nil
	}
	err := check()
	if err == nil {
		return nil
	}
	if cerr, ok := core.AsError(err); ok {
		return cerr.WithComponent(component)
	}
	return core.NewError(core.CodeInvalidArgument, err.Error(), nil).
		Wrap(err).
		WithComponent(component)
}

// All runs checks in order and returns the first failure.
func All(checks ...func() error) func() error {
	return func() error {
		for _, check := range checks {
			if err := check(); err != nil {
				return err
			}
		}
		return nil
	}
}
