package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/explorer/internal/utils"
)

const (
	errorWorkingDirectoryFormat = "determine working directory: %w"
	errorResolveConfigFormat    = "resolve configuration path %s: %w"
	errorStatConfigFormat       = "stat configuration %s: %w"
	errorConfigIsDirFormat      = "configuration path %s is a directory"
	errorReadConfigFormat       = "read configuration from %s: %w"
	errorDecodeConfigFormat     = "decode configuration from %s: %w"
	errorInvalidExcludeFormat   = "configuration %s: %w"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Build BuildConfiguration `mapstructure:"build"`
	Serve ServeConfiguration `mapstructure:"serve"`
	Watch WatchConfiguration `mapstructure:"watch"`
}

// BuildConfiguration defines how the catalog document is produced.
type BuildConfiguration struct {
	DataRoot     string            `mapstructure:"data_root"`
	Output       string            `mapstructure:"output"`
	CatalogName  string            `mapstructure:"catalog_name"`
	ToolsFile    string            `mapstructure:"tools_file"`
	Format       string            `mapstructure:"format"`
	Indent       *int              `mapstructure:"indent"`
	Strict       *bool             `mapstructure:"strict"`
	SkipHidden   *bool             `mapstructure:"skip_hidden"`
	SkipSymlinks *bool             `mapstructure:"skip_symlinks"`
	Paths        PathConfiguration `mapstructure:"paths"`
	Clipboard    *bool             `mapstructure:"clipboard"`
}

// PathConfiguration configures which directories the walk excludes.
type PathConfiguration struct {
	Exclude       []string `mapstructure:"exclude"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
}

// ServeConfiguration defines defaults for the serve command.
type ServeConfiguration struct {
	Address   string `mapstructure:"address"`
	PublicDir string `mapstructure:"public_dir"`
	Watch     *bool  `mapstructure:"watch"`
}

// WatchConfiguration defines defaults for rebuilding on change.
type WatchConfiguration struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoadApplicationConfiguration loads configuration from the global file and then
// the local or explicit file, later sources overriding earlier ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Build.Paths.Exclude = utils.DeduplicatePatterns(merged.Build.Paths.Exclude)
	if validationErr := utils.ValidatePatterns(merged.Build.Paths.Exclude); validationErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorInvalidExcludeFormat, "build.paths.exclude", validationErr)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(errorResolveConfigFormat, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatConfigFormat, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorConfigIsDirFormat, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadConfigFormat, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeConfigFormat, path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Build = result.Build.merge(override.Build)
	result.Serve = result.Serve.merge(override.Serve)
	result.Watch = result.Watch.merge(override.Watch)
	return result
}

func (config BuildConfiguration) merge(override BuildConfiguration) BuildConfiguration {
	result := config
	if override.DataRoot != "" {
		result.DataRoot = override.DataRoot
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.CatalogName != "" {
		result.CatalogName = override.CatalogName
	}
	if override.ToolsFile != "" {
		result.ToolsFile = override.ToolsFile
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Indent != nil {
		result.Indent = cloneInt(override.Indent)
	}
	if override.Strict != nil {
		result.Strict = cloneBool(override.Strict)
	}
	if override.SkipHidden != nil {
		result.SkipHidden = cloneBool(override.SkipHidden)
	}
	if override.SkipSymlinks != nil {
		result.SkipSymlinks = cloneBool(override.SkipSymlinks)
	}
	result.Paths = result.Paths.merge(override.Paths)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	return result
}

func (config ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	if override.PublicDir != "" {
		result.PublicDir = override.PublicDir
	}
	if override.Watch != nil {
		result.Watch = cloneBool(override.Watch)
	}
	return result
}

func (config WatchConfiguration) merge(override WatchConfiguration) WatchConfiguration {
	result := config
	if override.Debounce > 0 {
		result.Debounce = override.Debounce
	}
	return result
}

// BoolValue dereferences an optional setting, falling back to defaultValue.
func BoolValue(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}

// IntValue dereferences an optional setting, falling back to defaultValue.
func IntValue(value *int, defaultValue int) int {
	if value == nil {
		return defaultValue
	}
	return *value
}

// StringValue returns value unless it is empty.
func StringValue(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
