// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/bitmark-inc/claimtrie/storage"
	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// colours
const (
	keyColour1  = "\033[1;36m"
	keyColour2  = "\033[1;31m"
	valColour1  = "\033[1;33m"
	valColour2  = "\033[1;34m"
	delColour1  = "\033[1;35m"
	delColour2  = "\033[0;35m"
	delColour3  = "\033[0;31m"
	delColour4  = "\033[1;35m"
	nodelColour = "\033[1;32m"
	endColour   = "\033[0m"
)

type colours struct {
	k1, k2, v1, v2, d1, d2, d3, d4, n, e string
}

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "list", HasArg: getoptions.NO_ARGUMENT, Short: 'l'},
		{Long: "delete", HasArg: getoptions.NO_ARGUMENT, Short: 'd'},
		{Long: "colour", HasArg: getoptions.NO_ARGUMENT, Short: 'g'},
		{Long: "ascii", HasArg: getoptions.NO_ARGUMENT, Short: 'a'},
		{Long: "text", HasArg: getoptions.NO_ARGUMENT, Short: 't'},
		{Long: "directory", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'D'},
		{Long: "count", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["list"]) > 0 {

		// this will be a struct type
		poolType := reflect.TypeOf(storage.Pool)

		// print all available tags
		fmt.Printf(" tags:\n")
		for i := 0; i < poolType.NumField(); i += 1 {
			fieldInfo := poolType.Field(i)
			prefixTag := fieldInfo.Tag.Get("prefix")
			fmt.Printf("       %s → %s\n", prefixTag, fieldInfo.Name)
		}
		return
	}

	if len(options["help"]) > 0 || 0 == len(arguments) || 1 != len(options["directory"]) {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--count=N] [--text] --directory=DIR tag [--list] [key-prefix]", program)
	}

	ascii := len(options["ascii"]) > 0
	deleteKeys := len(options["delete"]) > 0
	verbose := len(options["verbose"]) > 0

	count := 10
	if len(options["count"]) > 0 {
		count, err = strconv.Atoi(options["count"][0])
		if nil != err {
			exitwithstatus.Message("%s: convert count error: %s", program, err)
		}
		if count < 1 {
			exitwithstatus.Message("%s: invalid count: %d", program, count)
		}
	}

	directory := options["directory"][0]
	tag := arguments[0]
	if verbose {
		fmt.Printf("read tag: %s from directory: %q\n", tag, directory)
	}

	// names are easier to give as text
	prefix := []byte(nil)
	if len(arguments) > 1 {
		if len(options["text"]) > 0 {
			prefix = []byte(arguments[1])
		} else {
			prefix, err = hex.DecodeString(arguments[1])
			if nil != err {
				exitwithstatus.Message("%s: convert prefix error: %s", program, err)
			}
		}
	}

	logging := logger.Configuration{
		Directory: ".",
		File:      "claimtrie-dumpdb.log",
		Size:      1048576,
		Count:     10,
		Console:   true,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	if err = logger.Initialise(logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// start of main processing
	db, err := storage.Open(directory, 0, !deleteKeys)
	if nil != err {
		exitwithstatus.Message("%s: storage setup failed with error: %s", program, err)
	}
	defer db.Close()

	// this will be a struct type
	poolType := reflect.TypeOf(storage.Pool)
	poolValue := reflect.ValueOf(storage.Pool)

	// scan each field to locate tag
	p := (*storage.PoolHandle)(nil)
tag_scan:
	for i := 0; i < poolType.NumField(); i += 1 {
		fieldInfo := poolType.Field(i)
		prefixTag := fieldInfo.Tag.Get("prefix")
		if tag == prefixTag {
			p = poolValue.Field(i).Interface().(*storage.PoolHandle)
			break tag_scan
		}
	}
	if nil == p {
		exitwithstatus.Message("%s: no pool corresponding to: %q", program, tag)
	}

	data := make([]storage.Element, 0, count)
	db.Iterate(p, prefix, func(key []byte, value []byte) bool {
		data = append(data, storage.Element{Key: key, Value: value})
		return len(data) < count
	})

	c := colours{}
	if len(options["colour"]) > 0 {
		c = colours{
			k1: keyColour1, k2: keyColour2,
			v1: valColour1, v2: valColour2,
			d1: delColour1, d2: delColour2, d3: delColour3, d4: delColour4,
			n: nodelColour, e: endColour,
		}
	}

	deletions := make([][]byte, 0)
print_loop:
	for i, e := range data {
		fmt.Printf("%d: %sKey: %s%x%s\n", i, c.k1, c.k2, e.Key, c.e)
		if ascii {
			prefix := fmt.Sprintf("%d: %sVal: %s", i, c.v1, c.v2)
			hexDump(prefix, c.e, e.Value)
		} else {
			fmt.Printf("%d: %sVal: %s%x%s\n", i, c.v1, c.v2, e.Value, c.e)
		}
		if !deleteKeys {
			continue print_loop
		}

	delete_loop:
		for {
			fmt.Printf("%d: %sDelete Key: %s%x%s ? [yNq]: ", i, c.d1, c.d2, e.Key, c.e)

			buffer := make([]byte, 100)
			n, err := os.Stdin.Read(buffer)
			if nil != err {
				exitwithstatus.Message("%s: error on Stdin.Read: %s", program, err)
			}

			response := strings.TrimSpace(string(buffer[:n]))
			switch strings.ToLower(response) {

			case "y", "yes":
				deletions = append(deletions, e.Key)
				fmt.Printf("%d: %s***DELETE: %s%x%s\n", i, c.d3, c.d4, e.Key, c.e)
				break delete_loop

			case "", "n", "no":
				fmt.Printf("%d: %sRetain Key: %s%x%s\n", i, c.n, c.k2, e.Key, c.e)
				break delete_loop

			case "q", "quit", "e", "exit", "x":
				break print_loop

			default:
				fmt.Printf("Please answer yes or no\n")
			}
		}
	}

	if 0 == len(deletions) {
		return
	}

	// all deletions are applied together
	trx, err := db.Begin()
	if nil != err {
		exitwithstatus.Message("%s: begin error: %s", program, err)
	}
	for _, key := range deletions {
		trx.Delete(p, key)
	}
	if err := trx.Commit(); nil != err {
		exitwithstatus.Message("%s: commit error: %s", program, err)
	}
	fmt.Printf("deleted: %d keys\n", len(deletions))
}

// dump hex data on stdout
func hexDump(prefix string, suffix string, data []byte) {
	address := 0
	const bytesPerLine = 32
	for i := 0; i < len(data); i += bytesPerLine {
		fmt.Printf("%s%04x  ", prefix, address)
		address += bytesPerLine
		for j := 0; j < bytesPerLine; j += 1 {
			if bytesPerLine/2 == j {
				fmt.Printf(" ")
			}
			if i+j < len(data) {
				fmt.Printf("%02x ", data[i+j])
			} else {
				fmt.Printf("   ")
			}
		}
		fmt.Printf(" |")
	ascii_loop:
		for j := 0; j < bytesPerLine; j += 1 {
			if i+j < len(data) {
				c := data[i+j]
				if c < 32 || c >= 127 {
					c = '.'
				}
				fmt.Printf("%c", c)

			} else {
				break ascii_loop
			}
		}
		fmt.Printf("|%s\n", suffix)
	}
}
