package errors

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrNotSeekable           = errors.New("underlying source does not support seeking")
	ErrInterrupted           = errors.New("ingest interrupted")
	ErrPoolStopped           = errors.New("worker pool stopped")
	ErrUnsupportedScheme     = errors.New("unsupported source scheme")
	ErrLockBusy              = errors.New("administrative lock busy")
	ErrInvalidSetting        = errors.New("invalid setting")
	ErrConfigNotSet          = errors.New("setting not set")
)

// lockBusyCodeName is the server error code name returned while the balancer
// or another split holds the collection's distributed lock.
const lockBusyCodeName = "LockBusy"

// IsLockBusy reports whether err is an administrative contention failure that
// can be retried.
func IsLockBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLockBusy) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return strings.EqualFold(cmdErr.Name, lockBusyCodeName)
	}
	return false
}

// InvalidSettingError generates a formatted error for a configuration value out of range.
func InvalidSettingError(setting string, value interface{}) error {
	return fmt.Errorf("%w: invalid value %v for %s", ErrInvalidSetting, value, setting)
}

func ConfigNotSetError(config string) error {
	return fmt.Errorf("%w: the %s setting must be set", ErrConfigNotSet, config)
}
