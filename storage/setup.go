// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/logger"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Claims          *PoolHandle `prefix:"C"`
	Supports        *PoolHandle `prefix:"S"`
	ClaimsByNode    *PoolHandle `prefix:"c"`
	SupportsByNode  *PoolHandle `prefix:"s"`
	ClaimsByID      *PoolHandle `prefix:"I"`
	Activations     *PoolHandle `prefix:"A"`
	Expirations     *PoolHandle `prefix:"E"`
	Takeovers       *PoolHandle `prefix:"T"`
	TakeoverHeights *PoolHandle `prefix:"t"`
	Nodes           *PoolHandle `prefix:"N"`
	Children        *PoolHandle `prefix:"K"`
	State           *PoolHandle `prefix:"H"`
}

// Pool - the set of exported pools
var Pool pools

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
	databaseName     = "claims.leveldb"
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Database - an open leveldb holding all pools
type Database struct {
	sync.Mutex
	log   *logger.L
	db    *leveldb.DB
	inUse bool
	*access
}

// the pool handles only carry prefixes so they are set up once
func init() {

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			panic(fmt.Sprintf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag))
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			name:   fieldInfo.Name,
			prefix: prefix,
			limit:  limit,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}
}

// Open - open (or create) the database in a directory
//
// cacheBytes sizes the leveldb block cache, zero selects the default
func Open(directory string, cacheBytes int, readOnly bool) (*Database, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:       false,
		ErrorIfMissing:     readOnly,
		ReadOnly:           readOnly,
		BlockCacheCapacity: cacheBytes,
	}

	name := filepath.Join(directory, databaseName)
	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, err
	}
	return setup(db, readOnly)
}

// OpenMemory - create an empty database that is never written to disk
func OpenMemory() (*Database, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	return setup(db, ReadWrite)
}

// check or set the version then wrap the database
func setup(db *leveldb.DB, readOnly bool) (*Database, error) {
	log := logger.New("storage")

	version, err := getVersion(db)
	if nil != err {
		db.Close()
		return nil, err
	}

	switch {
	case 0 == version && !readOnly:
		// database was empty so tag as current version
		err = putVersion(db, currentDBVersion)
		if nil != err {
			db.Close()
			return nil, err
		}
	case currentDBVersion != version:
		log.Criticalf("database version: %d  current version: %d", version, currentDBVersion)
		db.Close()
		return nil, fault.IncompatibleDatabase
	}

	log.Infof("database version: %d", currentDBVersion)

	d := &Database{
		log:    log,
		db:     db,
		access: &access{reader: db},
	}
	return d, nil
}

// Close - close the database connection
func (d *Database) Close() error {
	d.Lock()
	defer d.Unlock()

	if nil == d.db {
		return fault.DatabaseIsNotSet
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Begin - start the single write transaction
func (d *Database) Begin() (Transaction, error) {
	d.Lock()
	defer d.Unlock()

	if nil == d.db {
		return nil, fault.DatabaseIsNotSet
	}
	if d.inUse {
		return nil, fault.TransactionAlreadyInUse
	}

	tr, err := d.db.OpenTransaction()
	if nil != err {
		return nil, err
	}
	d.inUse = true

	t := &transaction{
		owner:  d,
		tr:     tr,
		access: &access{reader: tr},
	}
	return t, nil
}

// called when a transaction is finished
func (d *Database) release() {
	d.Lock()
	d.inUse = false
	d.Unlock()
}

// return:
//   version number, zero if the database is new
func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
