package astcheck

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Configuration error classes. Every error returned by Configure is marked
// with ErrConfig and with one of the more specific sentinels.
var (
	ErrConfig          = errors.New("invalid check configuration")
	ErrUnknownCheck    = errors.New("unknown check")
	ErrInvalidProperty = errors.New("invalid property")
	ErrIllegalTokens   = errors.New("illegal token override")
)

// ConfigError attributes a configuration failure to a configured check and,
// when known, to one of its properties.
type ConfigError struct {
	CheckID  string
	Property string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "check %q", e.CheckID)
	if e.Property != "" {
		fmt.Fprintf(&b, ", property %q", e.Property)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configError(checkID, property string, sentinel, err error) *ConfigError {
	return &ConfigError{
		CheckID:  checkID,
		Property: property,
		Err:      errors.Mark(errors.Mark(err, sentinel), ErrConfig),
	}
}
