package history

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	// File system permissions and paths
	defaultDirPerm   = 0o755
	defaultDBPath    = "/var/lib/hellobakery/history.db"
	defaultBackupDir = "/var/lib/hellobakery/backups"
)

type Config struct {
	DBPath    string
	BackupDir string
	Enabled   bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:    defaultDBPath,
		BackupDir: defaultBackupDir,
		Enabled:   false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if history is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}
