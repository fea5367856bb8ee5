// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/claimtrie/chain"
	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/logger"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultCacheBytes       = 32 * 1024 * 1024

	defaultLogDirectory = "log"
	defaultLogFile      = "claimtrie.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		"claimtrie":       "info",
		logger.DefaultTag: "critical",
	}
)

// LoggerType - logging section
type LoggerType struct {
	Directory string            `gluamapper:"directory" json:"directory"`
	File      string            `gluamapper:"file" json:"file"`
	Size      int               `gluamapper:"size" json:"size"`
	Count     int               `gluamapper:"count" json:"count"`
	Console   bool              `gluamapper:"console" json:"console"`
	Levels    map[string]string `gluamapper:"levels" json:"levels"`
}

// DatabaseType - database section
type DatabaseType struct {
	Directory  string `gluamapper:"directory" json:"directory"`
	CacheBytes int    `gluamapper:"cache_bytes" json:"cache_bytes"`
}

// fork override keys
const (
	ForkNormalization = "normalization"
	ForkAllClaims     = "all_claims"
	ForkClaimInfo     = "claim_info"
	ForkExpiration    = "expiration"
)

// Configuration - the decoded configuration file
type Configuration struct {
	DataDirectory string         `gluamapper:"data_directory" json:"data_directory"`
	Chain         string         `gluamapper:"chain" json:"chain"`
	Height        int            `gluamapper:"height" json:"height"`
	Database      DatabaseType   `gluamapper:"database" json:"database"`
	Forks         map[string]int `gluamapper:"forks" json:"forks"`
	Logging       LoggerType     `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - read, decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		Chain:         chain.Main,

		Database: DatabaseType{
			Directory:  defaultLevelDBDirectory,
			CacheBytes: defaultCacheBytes,
		},

		Logging: LoggerType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// abort if the chain name is not recognised
	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, fmt.Errorf("chain: %q is not supported", options.Chain)
	}

	for name := range options.Forks {
		switch name {
		case ForkNormalization, ForkAllClaims, ForkClaimInfo, ForkExpiration:
		default:
			return nil, fmt.Errorf("forks: %q is not a known fork", name)
		}
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// fail if the log file is not a simple file name
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("files: %q is not plain name", options.Logging.File)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{&options.Database.Directory, &options.Logging.Directory} {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0o700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// LoggerConfiguration - settings for logger.Initialise
func (c *Configuration) LoggerConfiguration() logger.Configuration {
	return logger.Configuration{
		Directory: c.Logging.Directory,
		File:      c.Logging.File,
		Size:      c.Logging.Size,
		Count:     c.Logging.Count,
		Console:   c.Logging.Console,
		Levels:    c.Logging.Levels,
	}
}

// ClaimTrie - the claim trie settings for the selected chain with any fork overrides
func (c *Configuration) ClaimTrie() (claimtrie.Configuration, error) {
	config, err := claimtrie.ChainConfiguration(c.Chain, c.Database.Directory)
	if nil != err {
		return config, err
	}
	config.CacheBytes = c.Database.CacheBytes
	if c.Height > 0 {
		config.Height = int32(c.Height)
	}

	for name, height := range c.Forks {
		switch name {
		case ForkNormalization:
			config.NormalizedNameForkHeight = int32(height)
		case ForkAllClaims:
			config.AllClaimsInMerkleForkHeight = int32(height)
		case ForkClaimInfo:
			config.ClaimInfoInMerkleForkHeight = int32(height)
		case ForkExpiration:
			config.ExtendedClaimExpirationForkHeight = int32(height)
		default:
			return config, fault.InvalidConfiguration
		}
	}

	err = config.Validate()
	return config, err
}

// ensure the path is absolute
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}
