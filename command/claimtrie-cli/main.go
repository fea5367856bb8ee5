// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/configuration"
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/logger"
)

type metadata struct {
	file    string
	config  *configuration.Configuration
	trie    *claimtrie.Cache
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "claimtrie-cli"
	app.Usage = "query and verify a claim trie database"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "config-file, c",
			Value: "claimtrie.conf",
			Usage: " configuration `FILE`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "root",
			Usage:  "show the height and merkle root",
			Action: runRoot,
		},
		{
			Name:      "info",
			Usage:     "show the controlling claim of a name",
			ArgsUsage: "NAME",
			Action:    runInfo,
		},
		{
			Name:      "claims",
			Usage:     "list every claim and support of a name",
			ArgsUsage: "NAME",
			Action:    runClaims,
		},
		{
			Name:      "proof",
			Usage:     "generate a merkle proof for a name",
			ArgsUsage: "NAME\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "claim-id, i",
					Value: "",
					Usage: " prove this claim `ID` instead of the controlling claim",
				},
			},
			Action: runProof,
		},
		{
			Name:      "find",
			Usage:     "find the name of a claim from a claim id prefix",
			ArgsUsage: "HEX-PREFIX",
			Action:    runFind,
		},
		{
			Name:  "names",
			Usage: "list names that have a claim in force",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, n",
					Value: 20,
					Usage: " maximum names to output `COUNT`",
				},
			},
			Action: runNames,
		},
		{
			Name:   "totals",
			Usage:  "count names, claims and value in the trie",
			Action: runTotals,
		},
		{
			Name:  "rules",
			Usage: "list the fork rules in effect at a height",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "height, H",
					Value: -1,
					Usage: " block `HEIGHT` (default: last completed block)",
				},
			},
			Action: runRules,
		},
		{
			Name:  "validate",
			Usage: "check the trie against an expected height and root",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "height, H",
					Value: -1,
					Usage: "*expected block `HEIGHT`",
				},
				cli.StringFlag{
					Name:  "root, r",
					Value: "",
					Usage: "*expected merkle root `HEX`",
				},
			},
			Action: runValidate,
		},
		{
			Name:   "check",
			Usage:  "recompute every node hash and compare with the stored trie",
			Action: runCheck,
		},
		{
			Name:   "statistics",
			Usage:  "show the counters of this run",
			Action: runStatistics,
		},
		{
			Name:  "version",
			Usage: "display claimtrie-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// read the configuration and open the trie
	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		command := c.Args().Get(0)
		if "version" == command || "help" == command || "" == command {
			return nil
		}

		file := c.GlobalString("config-file")
		if verbose {
			fmt.Fprintf(e, "reading config file: %s\n", file)
		}

		options, err := configuration.GetConfiguration(file)
		if nil != err {
			return err
		}

		if err := logger.Initialise(options.LoggerConfiguration()); nil != err {
			return err
		}

		trieConfiguration, err := options.ClaimTrie()
		if nil != err {
			logger.Finalise()
			return err
		}

		trie, err := claimtrie.Open(trieConfiguration)
		if nil != err {
			logger.Finalise()
			return err
		}

		c.App.Metadata["config"] = &metadata{
			file:    file,
			config:  options,
			trie:    trie,
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	// close the trie
	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		err := m.trie.Close()
		logger.Finalise()
		return err
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		if fault.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
