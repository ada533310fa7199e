package registry

import "codeberg.org/mutker/hellobakery/internal/errors"

const (
	ErrDuplicatePlugin = errors.ErrorCode("registry_duplicate_plugin")
	ErrPluginNotFound  = errors.ErrorCode("registry_plugin_not_found")
	ErrInvalidManifest = errors.ErrorCode("registry_invalid_manifest")
)
