package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")

	// Resolution errors.
	ErrNoEndpoint    = fmt.Errorf("no endpoint given for query")
	ErrNoVersions    = fmt.Errorf("no versions found")
	ErrMetadataFetch = fmt.Errorf("failed to fetch metadata")
	ErrQueryFailed   = fmt.Errorf("sparql query failed")

	// Download auth errors.
	ErrAPIKeyRequired          = fmt.Errorf("databus api key required")
	ErrVaultTokenRequired      = fmt.Errorf("vault token required")
	ErrHostNotVaultConfigured  = fmt.Errorf("host not configured for vault authentication")
	ErrUnauthorized            = fmt.Errorf("unauthorized, check api key or vault token")
	ErrForbidden               = fmt.Errorf("access forbidden, check credentials")
	ErrTokenInvalid            = fmt.Errorf("vault token invalid or expired")
	ErrInsufficientPermissions = fmt.Errorf("insufficient permissions for resource")

	// Download errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")

	// Token exchange errors.
	ErrTokenExchange = fmt.Errorf("token exchange failed")

	// Deploy errors.
	ErrDeployFailed = fmt.Errorf("deploy failed")
	ErrBadArgument  = fmt.Errorf("bad argument")

	// Delete errors.
	ErrDeleteFailed    = fmt.Errorf("delete failed")
	ErrDeleteCancelled = fmt.Errorf("deletion cancelled")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
