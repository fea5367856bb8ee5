// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/bitmark-inc/claimtrie/chain"
)

// ParseConfigurationFile - read and execute a Lua file and assign
// the returned table to a configuration structure
//
// the script can read the parameters of every chain from the global
// "chains" table, e.g. chains.regtest.normalization
func ParseConfigurationFile(fileName string, config interface{}) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	// create the global "arg" table
	// arg[0] = config file
	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(fileName))
	L.SetGlobal("arg", arg)
	L.SetGlobal("chains", chainTable(L))

	// execute configuration
	if err := L.DoFile(fileName); err != nil {
		return err
	}

	result, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return fmt.Errorf("configuration: %q did not return a table", fileName)
	}

	mapperOption := gluamapper.Option{
		NameFunc: func(s string) string {
			return s
		},
		TagName: "gluamapper",
	}
	mapper := gluamapper.Mapper{Option: mapperOption}
	return mapper.Map(result, config)
}

// chain name -> { fork key -> height, expiration durations }
func chainTable(L *lua.LState) *lua.LTable {
	chains := L.NewTable()
	for _, name := range []string{chain.Main, chain.Test, chain.Regtest} {
		p, _ := chain.Get(name)
		t := L.NewTable()
		t.RawSetString(ForkNormalization, lua.LNumber(p.NormalizedNameForkHeight))
		t.RawSetString(ForkAllClaims, lua.LNumber(p.AllClaimsInMerkleForkHeight))
		t.RawSetString(ForkClaimInfo, lua.LNumber(p.ClaimInfoInMerkleForkHeight))
		t.RawSetString(ForkExpiration, lua.LNumber(p.ExtendedClaimExpirationForkHeight))
		t.RawSetString("original_expiration", lua.LNumber(p.OriginalClaimExpirationTime))
		t.RawSetString("extended_expiration", lua.LNumber(p.ExtendedClaimExpirationTime))
		chains.RawSetString(name, t)
	}
	return chains
}
