package kvstore

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
)

// UpdateDatabase upgrades the database schema from the stored version to the version of the plugin.
func (s *Store) UpdateDatabase(pluginVersion string) error {
	newestSchema, err := schemaVersion(pluginVersion)
	if err != nil {
		return err
	}

	v, err := s.System().GetVersion()
	if err != nil {
		return err
	}
	// If no version is set, set to to the newest version
	if v == "" {
		s.api.LogWarn(fmt.Sprintf("This looks to be a fresh install. Setting database schema version to %v.", newestSchema.String()))
		return s.System().SaveVersion(newestSchema.String())
	}

	currentSchema, err := semver.Parse(v)
	if err != nil {
		return errors.Wrapf(err, "invalid database schema version %q", v)
	}
	if s.shouldPerformUpgrade(currentSchema, newestSchema) {
		// All schema versions so far share the same document layout.
		if err := s.System().SaveVersion(newestSchema.String()); err != nil {
			return err
		}
		s.api.LogWarn("Update complete")
	}

	return nil
}

func (s *Store) shouldPerformUpgrade(currentSchemaVersion, expectedSchemaVersion semver.Version) bool {
	if currentSchemaVersion.LT(expectedSchemaVersion) {
		s.api.LogWarn(fmt.Sprintf("The database schema version of %v appears to be out of date.", currentSchemaVersion.String()))
		s.api.LogWarn(fmt.Sprintf("Attempting to upgrade the database schema version to %v.", expectedSchemaVersion.String()))
		return true
	}
	return false
}

// schemaVersion returns the plugin version without its patch level.
func schemaVersion(pluginVersion string) (semver.Version, error) {
	v, err := semver.Parse(pluginVersion)
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "invalid plugin version %q", pluginVersion)
	}
	// Don't store patch versions
	v.Patch = 0
	v.Pre = nil
	v.Build = nil
	return v, nil
}
