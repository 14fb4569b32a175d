package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainstore/infrastructure/logger"
	"github.com/kaspanet/chainstore/version"
	"github.com/pkg/errors"
)

const (
	defaultLogFilename    = "chainstorectl.log"
	defaultErrLogFilename = "chainstorectl_err.log"

	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
	backendLevelDB  = "ldb"
)

var (
	defaultHomeDir         = defaultAppDir()
	defaultDataDir         = filepath.Join(defaultHomeDir, "data")
	defaultLogDir          = filepath.Join(defaultHomeDir, "logs")
	defaultTimeout  uint64 = 30
	defaultLogLevel        = "info"
)

type configFlags struct {
	ShowVersion          bool   `short:"V" long:"version" description:"Display version information and exit"`
	Backend              string `short:"b" long:"backend" description:"Database backend" choice:"sqlite" choice:"postgres" choice:"ldb"`
	DataDir              string `short:"d" long:"datadir" description:"Directory holding the store (sqlite and ldb backends)"`
	DSN                  string `long:"dsn" description:"Postgres connection string (postgres backend)"`
	LogDir               string `long:"logdir" description:"Directory to log output"`
	LogLevel             string `long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Timeout              uint64 `short:"t" long:"timeout" description:"Timeout for the command (in seconds)"`
	ListCommands         bool   `short:"l" long:"list-commands" description:"List all commands and exit"`
	CommandAndParameters []string
}

func defaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".chainstore"
	}
	return filepath.Join(homeDir, ".chainstore")
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		Backend:  backendSQLite,
		DataDir:  defaultDataDir,
		LogDir:   defaultLogDir,
		LogLevel: defaultLogLevel,
		Timeout:  defaultTimeout,
	}
	parser := flags.NewParser(cfg, flags.HelpFlag)
	parser.Usage = "chainstorectl [OPTIONS] [COMMAND] [COMMAND PARAMETERS]" +
		"\n\nUse `chainstorectl --list-commands` to get a list of all commands and their parameters"
	remainingArgs, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if cfg.ListCommands {
		return cfg, nil
	}

	// Special show command to list supported subsystems and exit.
	if cfg.LogLevel == "show" {
		fmt.Print(logger.String())
		os.Exit(0)
	}

	err = logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case backendPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("--dsn is required with the postgres backend")
		}
	default:
		if cfg.DSN != "" {
			return nil, errors.Errorf("--dsn can't be used with the %s backend", cfg.Backend)
		}
	}

	cfg.CommandAndParameters = remainingArgs
	if len(cfg.CommandAndParameters) == 0 {
		return nil, errors.New("A command must be specified")
	}

	initLog(filepath.Join(cfg.LogDir, defaultLogFilename), filepath.Join(cfg.LogDir, defaultErrLogFilename))

	return cfg, nil
}
