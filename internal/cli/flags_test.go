package cli

import (
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{name: "defaults to false", defaultValue: false, arguments: []string{}, expected: false},
		{name: "sets true without value", defaultValue: false, arguments: []string{"--strict"}, expected: true},
		{name: "sets false with equals", defaultValue: true, arguments: []string{"--strict=false"}, expected: false},
		{name: "sets false with no literal", defaultValue: true, arguments: []string{"--strict", "no"}, expected: false},
		{name: "sets true with on literal", defaultValue: false, arguments: []string{"--strict", "on"}, expected: true},
		{name: "rejects unknown literal", defaultValue: false, arguments: []string{"--strict=maybe"}, expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			command.SetOut(io.Discard)
			command.SetErr(io.Discard)
			flagValue := !testCase.defaultValue
			registerBooleanFlag(command.Flags(), &flagValue, "strict", testCase.defaultValue, "fail on problems")
			parseError := command.ParseFlags(normalizeFlagArguments(command, testCase.arguments))
			if testCase.expectError {
				require.Error(t, parseError)
				return
			}
			require.NoError(t, parseError)
			require.Equal(t, testCase.expected, flagValue)
		})
	}
}

func TestRegisterCopyFlagParsesValues(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		expected  bool
	}{
		{name: "defaults to false", arguments: []string{}, expected: false},
		{name: "sets true without value", arguments: []string{"--copy"}, expected: true},
		{name: "sets false with no", arguments: []string{"--copy", "no"}, expected: false},
		{name: "sets true before other flag", arguments: []string{"--copy", "--strict"}, expected: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var copyValue bool
			var strictValue bool
			command := &cobra.Command{Use: "copy-test"}
			registerCopyFlag(command.Flags(), &copyValue)
			registerBooleanFlag(command.Flags(), &strictValue, "strict", false, "fail on problems")
			require.NoError(t, command.ParseFlags(normalizeFlagArguments(command, testCase.arguments)))
			require.Equal(t, testCase.expected, copyValue)
		})
	}
}

func TestNormalizeFlagArgumentsCoversSubcommands(t *testing.T) {
	app := &application{}
	rootCommand := createRootCommand(app)

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "joins subcommand literal",
			arguments: []string{"build", "--strict", "yes", "--data", "catalog"},
			expected:  []string{"build", "--strict=yes", "--data", "catalog"},
		},
		{
			name:      "joins persistent literal",
			arguments: []string{"--verbose", "false", "serve", "--watch", "1"},
			expected:  []string{"--verbose=false", "serve", "--watch=1"},
		},
		{
			name:      "leaves string flags",
			arguments: []string{"build", "--name", "no"},
			expected:  []string{"build", "--name", "no"},
		},
		{
			name:      "stops at terminator",
			arguments: []string{"build", "--", "--strict", "no"},
			expected:  []string{"build", "--", "--strict", "no"},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, normalizeFlagArguments(rootCommand, testCase.arguments))
		})
	}
}
