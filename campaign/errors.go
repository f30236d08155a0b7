package campaign

import "errors"

// ErrConfig is returned for unknown CLI/element/damage-model tokens.
var ErrConfig = errors.New("campaign: invalid configuration")
