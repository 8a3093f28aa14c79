/*package cmd contains code for running deflect in its various command line
modes.*/
package cmd

import (
	"context"
	"fmt"

	"github.com/microlens/deflect/io"
	"github.com/microlens/deflect/logging"
	"github.com/microlens/deflect/parse"
	"github.com/microlens/deflect/version"
)

// GlobalConfigEnv names the environment variable which may hold the path to
// the global config file.
const GlobalConfigEnv = "DEFLECT_GLOBAL_CONFIG"

var ModeNames map[string]Mode = map[string]Mode{
	"map":   &MapConfig{},
	"check": &CheckConfig{},
}

// Mode represents the interface used by the main binary when interacting with
// a given command line mode.
type Mode interface {
	// ReadConfig reads a mode-specific config file and stores its contents
	// within the Mode. flags are --Name=value overrides applied after the
	// file. An empty fname means that only the flags are read.
	ReadConfig(fname string, flags []string) error
	// ExampleConfig returns the text of an example config file of this mode.
	ExampleConfig() string
	// Run executes the mode with an initialized GlobalConfig. It returns a
	// slice of lines that should be written to stdout along with an error if
	// one occurs.
	Run(ctx context.Context, gConfig *GlobalConfig) ([]string, error)
}

// GlobalConfig is a config file used by every mode. It controls versioning
// and logging.
type GlobalConfig struct {
	Version string

	LogMode       string
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSize    int64
	LogMaxBackups int64
	LogMaxAge     int64
	LogCompress   bool
}

var _ Mode = &GlobalConfig{}

// ReadConfig reads a config file and returns an error, if applicable.
func (config *GlobalConfig) ReadConfig(fname string, flags []string) error {
	vars := parse.NewConfigVars("config")
	vars.String(&config.Version, "Version", version.SourceVersion)
	vars.String(&config.LogMode, "LogMode", "Nil")
	vars.String(&config.LogLevel, "LogLevel", "info")
	vars.String(&config.LogFormat, "LogFormat", "console")
	vars.String(&config.LogFile, "LogFile", "")
	vars.Int(&config.LogMaxSize, "LogMaxSize", 100)
	vars.Int(&config.LogMaxBackups, "LogMaxBackups", 3)
	vars.Int(&config.LogMaxAge, "LogMaxAge", 28)
	vars.Bool(&config.LogCompress, "LogCompress", false)

	if err := readVars(fname, flags, vars); err != nil {
		return err
	}
	return config.validate()
}

// readVars reads fname, if given, and then flags into vars.
func readVars(fname string, flags []string, vars *parse.ConfigVars) error {
	if fname != "" {
		if err := parse.ReadConfig(fname, vars); err != nil {
			return err
		}
	}
	return parse.ReadFlags(flags, vars)
}

// validate checks that all the user-generated fields of GlobalConfig are
// properly set.
func (config *GlobalConfig) validate() error {
	if err := version.Check(config.Version); err != nil {
		return fmt.Errorf("The 'Version' variable is set to '%s', but %s.",
			config.Version, err.Error())
	}

	if _, err := logging.ParseFlag(config.LogMode); err != nil {
		return fmt.Errorf("The 'LogMode' variable is set to '%s', which I "+
			"don't recognize.", config.LogMode)
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("The 'LogLevel' variable is set to '%s', which I "+
			"don't recognize.", config.LogLevel)
	}

	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("The 'LogFormat' variable is set to '%s', which I "+
			"don't recognize.", config.LogFormat)
	}

	if config.LogMaxSize <= 0 {
		return fmt.Errorf("The 'LogMaxSize' variable is set to %d, but it "+
			"must be positive.", config.LogMaxSize)
	} else if config.LogMaxBackups < 0 {
		return fmt.Errorf("The 'LogMaxBackups' variable is set to %d, but it "+
			"can't be negative.", config.LogMaxBackups)
	} else if config.LogMaxAge < 0 {
		return fmt.Errorf("The 'LogMaxAge' variable is set to %d, but it "+
			"can't be negative.", config.LogMaxAge)
	}

	return nil
}

// InitLogging sets logging.Mode and builds the process logger.
func (config *GlobalConfig) InitLogging() error {
	mode, err := logging.ParseFlag(config.LogMode)
	if err != nil {
		return err
	}
	logging.Mode = mode

	logFile := config.LogFile
	if logFile != "" {
		if logFile, err = io.ExpandPath(logFile); err != nil {
			return err
		}
	}

	logging.InitStderr(logging.Config{
		Level:      config.LogLevel,
		Format:     config.LogFormat,
		LogFile:    logFile,
		MaxSize:    int(config.LogMaxSize),
		MaxBackups: int(config.LogMaxBackups),
		MaxAge:     int(config.LogMaxAge),
		Compress:   config.LogCompress,
	})
	return nil
}

// ExampleConfig returns an example configuration file.
func (config *GlobalConfig) ExampleConfig() string {
	return fmt.Sprintf(`config:
  # Target version of deflect. This option merely allows deflect to notice
  # when its source and configuration files are not from the same version.
  # Config files from later versions or other major versions are rejected.
  #
  # This variable defaults to the source version if not included.
  Version: %s

  # LogMode is one of Nil, Performance or Debug. Performance mode logs the
  # memory usage of the process and Debug mode logs at the debug level.
  LogMode: Nil
  # LogLevel is one of debug, info, warn or error.
  LogLevel: info
  # LogFormat is console or json. This only affects the lines written to
  # stderr.
  LogFormat: console

  # If LogFile is set, every log line is also written there as JSON. The file
  # is rotated once it reaches LogMaxSize megabytes. LogMaxBackups old files
  # are kept for at most LogMaxAge days.
  # LogFile: ~/deflect/deflect.log
  LogMaxSize: 100
  LogMaxBackups: 3
  LogMaxAge: 28
  LogCompress: false
`, version.SourceVersion)
}

// Run is a dummy method which allows GlobalConfig to conform to the Mode
// interface for testing purposes.
func (config *GlobalConfig) Run(
	ctx context.Context, gConfig *GlobalConfig,
) ([]string, error) {
	panic("GlobalConfig.Run() should never be executed.")
}
