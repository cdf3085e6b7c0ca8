// Package services manages the system services a Phabricator host needs:
// MariaDB, Apache2, and PHP. Each manager collects configuration first and
// applies it during install, so independent components can contribute
// settings before anything touches the target.
package services

import "errors"

var (
	// ErrAlreadyInstalled is returned when configuration is attempted after
	// install has run.
	ErrAlreadyInstalled = errors.New("service is already installed")

	// ErrConflictingOption is returned when two components request different
	// values for the same option.
	ErrConflictingOption = errors.New("conflicting option values")

	// ErrDuplicateSite is returned when a site ID is registered twice.
	ErrDuplicateSite = errors.New("site already exists")
)
