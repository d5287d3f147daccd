package conf

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"
)

// envPrefix is prepended to uppercased flag names to build the corresponding
// environment variable name.
const envPrefix = "ASGIBENCH"

// flagType is an internal interface for all flags.
type flagType interface {
	envName() string
	clear()
}

// definedFlags stores all the defined flags. It helps to find duplicates when
// defining a flag with the same name twice.
var definedFlags = map[string]flagType{}

// cliAndEnvFlag represents an option's definition from CLI and environment
// variable. It stores generic data for each defined flag.
type cliAndEnvFlag struct {
	*kingpin.FlagClause
}

func newCliAndEnvFlag(flagName string, description string, defaultValue string) *cliAndEnvFlag {
	c := &cliAndEnvFlag{FlagClause: app.Flag(flagName, description)}
	c.OverrideDefaultFromEnvar(c.envName())
	if defaultValue != "" {
		c.Default(defaultValue)
	}

	return c
}

// envName returns the flag name converted to an environment variable name.
// For instance: "requests" will be "ASGIBENCH_REQUESTS".
func (f *cliAndEnvFlag) envName() string {
	return fmt.Sprintf("%s_%s", envPrefix, strings.ToUpper(f.Model().Name))
}

// clear unsets the corresponding environment variable.
func (f *cliAndEnvFlag) clear() {
	os.Unsetenv(f.envName())
}

// StringFlag represents a flag with a string value.
type StringFlag struct {
	*cliAndEnvFlag
	defaultValue string
	value        *string
}

// NewStringFlag is a constructor of StringFlag struct.
// Redefining a flag with the same name, type and default returns the already
// registered flag; any mismatch is a programmer error and panics.
func NewStringFlag(flagName string, description string, defaultValue string) *StringFlag {
	if duplicated := definedFlags[flagName]; duplicated != nil {
		flagDef, ok := duplicated.(*StringFlag)
		if !ok {
			panic("flag was redefined with a different type")
		}
		if flagDef.defaultValue != defaultValue {
			panic("flag was redefined with a different default value")
		}
		return flagDef
	}

	flagDef := &StringFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue),
		defaultValue:  defaultValue,
	}

	flagDef.value = flagDef.String()
	definedFlags[flagName] = flagDef
	isConfParsed = false
	return flagDef
}

// Short registers a one-letter alias for the flag. Returns the flag itself so
// it can be chained at definition time.
func (s *StringFlag) Short(short rune) *StringFlag {
	s.FlagClause.Short(short)
	return s
}

// Value returns the value of the defined flag after parse.
// NOTE: If conf is not parsed it returns the default value.
func (s StringFlag) Value() string {
	if !isConfParsed {
		return s.defaultValue
	}

	return *s.value
}

// IntFlag represents a flag with an int value.
type IntFlag struct {
	*cliAndEnvFlag
	defaultValue int
	value        *int
}

// NewIntFlag is a constructor of IntFlag struct.
// Redefining a flag with the same name, type and default returns the already
// registered flag; any mismatch is a programmer error and panics.
func NewIntFlag(flagName string, description string, defaultValue int) *IntFlag {
	if duplicated := definedFlags[flagName]; duplicated != nil {
		flagDef, ok := duplicated.(*IntFlag)
		if !ok {
			panic("flag was redefined with a different type")
		}
		if flagDef.defaultValue != defaultValue {
			panic("flag was redefined with a different default value")
		}
		return flagDef
	}

	flagDef := &IntFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, fmt.Sprintf("%d", defaultValue)),
		defaultValue:  defaultValue,
	}

	flagDef.value = flagDef.Int()
	definedFlags[flagName] = flagDef
	isConfParsed = false
	return flagDef
}

// Short registers a one-letter alias for the flag. Returns the flag itself so
// it can be chained at definition time.
func (i *IntFlag) Short(short rune) *IntFlag {
	i.FlagClause.Short(short)
	return i
}

// Value returns the value of the defined flag after parse.
// NOTE: If conf is not parsed it returns the default value.
func (i IntFlag) Value() int {
	if !isConfParsed {
		return i.defaultValue
	}

	return *i.value
}

// StringArg represents a positional argument with a string value.
// Arguments are not overridable from the environment; required-ness is left
// to the caller's validation so that environment-only parsing keeps working.
type StringArg struct {
	value *string
}

// NewStringArg is a constructor of StringArg struct.
func NewStringArg(argName string, description string) *StringArg {
	arg := &StringArg{}
	arg.value = app.Arg(argName, description).String()
	isConfParsed = false
	return arg
}

// Value returns the value of the argument after parse.
func (a StringArg) Value() string {
	return *a.value
}
