package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage:
//
//	if err := store.Save(ctx, id, st); err != nil {
//	    return errors.Wrap(err, "failed to save project state")
//	}
//
// The wrapped error keeps the chain intact, so errors.Is(err, ErrState)
// still matches after wrapping.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil.
//
//	return errors.Wrapf(err, "failed to run agent %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Join attaches a sentinel to a detail error so both match errors.Is.
// It is used where a concrete failure (an os error, a decode error) must
// also be reported under a taxonomy sentinel such as ErrState.
func Join(sentinel, detail error) error {
	if detail == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, detail)
}
