// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile     = "lookout.pid"
	FollowsFile = "follows.json"
	ConfigFile  = "config.toml"
	LogFile     = "lookout.log"
)

// BinaryName is the installed binary name, used in usage text.
const BinaryName = "lookout"

// DataDirRel is the default data directory, relative to $HOME.
const DataDirRel = ".lookout"

// ReleaseManifestURL is the remote manifest consulted by the update check.
const ReleaseManifestURL = "https://raw.githubusercontent.com/lookoutbot/lookout/main/.release-manifest.json"

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Follows returns the full path to the persisted follow artifact.
func (d DataDir) Follows() string { return filepath.Join(d.Root, FollowsFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }
