package config

import (
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/validation"
)

// Scope names what a command needs from the configuration.
type Scope int

// Validation scopes, one per kind of command.
const (
	// ScopeMigrate needs both catalogs and a destination root folder.
	ScopeMigrate Scope = iota
	// ScopeSource needs only the source catalog.
	ScopeSource
	// ScopeDestination needs only the destination catalog.
	ScopeDestination
	// ScopeHistory needs only the history database.
	ScopeHistory
)

var configValidator = validation.New()

// Validate checks the sections the scope requires. All failures are
// reported together as one validation error with per-field details.
func (c *Config) Validate(scope Scope) error {
	errs := []error{configValidator.ValidatePrefixed("options", c.Options)}

	switch scope {
	case ScopeMigrate:
		errs = append(errs,
			configValidator.ValidatePrefixed("mylar", c.Mylar),
			configValidator.ValidatePrefixed("kapowarr", c.Kapowarr),
		)
		if c.Kapowarr.RootFolderID <= 0 {
			errs = append(errs, errors.ValidationWithDetails("root folder required", map[string]string{
				"kapowarr.root_folder_id": "is required for migration",
			}))
		}
	case ScopeSource:
		errs = append(errs, configValidator.ValidatePrefixed("mylar", c.Mylar))
	case ScopeDestination:
		errs = append(errs, configValidator.ValidatePrefixed("kapowarr", c.Kapowarr))
	case ScopeHistory:
		if c.Options.HistoryDB == "" {
			errs = append(errs, errors.ValidationWithDetails("history database required", map[string]string{
				"options.history_db": "is required",
			}))
		}
	}

	return validation.Merge(errs...)
}
