package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName               = "bool"
	copyFlagTypeName                  = "copy"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
	flagTerminator                    = "--"
	longFlagPrefix                    = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// booleanFlagValue accepts the literals of booleanFlagLiterals and treats a bare
// flag as true.
type booleanFlagValue struct {
	target   *bool
	flagKey  string
	typeName string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueErrorLabel, input)
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, value.flagKey, booleanFlagAcceptedValuesListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	if value == nil || value.typeName == "" {
		return booleanFlagTypeName
	}
	return value.typeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	registerLiteralFlag(flagSet, target, name, defaultValue, usage, booleanFlagTypeName)
}

// registerCopyFlag adds --copy, which is off unless given.
func registerCopyFlag(flagSet *pflag.FlagSet, target *bool) {
	registerLiteralFlag(flagSet, target, copyFlagName, false, copyFlagDescription, copyFlagTypeName)
}

func registerLiteralFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string, typeName string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name, typeName: typeName}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeFlagArguments joins "--flag value" into "--flag=value" for literal
// flags anywhere in the command tree when value is a boolean literal. Without it
// pflag would read the literal as a positional argument.
func normalizeFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	literalFlags := map[string]struct{}{}
	collectLiteralFlagNames(command, literalFlags)
	if len(literalFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == flagTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, longFlagPrefix) && !strings.Contains(currentArgument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, longFlagPrefix)
			nextArgument := arguments[index+1]
			if _, isLiteralFlag := literalFlags[flagName]; isLiteralFlag && !strings.HasPrefix(nextArgument, "-") {
				if _, valid := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; valid {
					normalized = append(normalized, fmt.Sprintf("%s%s=%s", longFlagPrefix, flagName, nextArgument))
					index += 2
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

func collectLiteralFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		if flagSet == nil {
			return
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag == nil || flag.Value == nil {
				return
			}
			switch flag.Value.Type() {
			case booleanFlagTypeName, copyFlagTypeName:
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectLiteralFlagNames(child, target)
	}
}
