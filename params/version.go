// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"fmt"

	"github.com/ledgerwatch/erigon-lib/kv"
)

var (
	// Following vars are injected through the build flags (see Makefile)
	GitCommit string
	GitBranch string
	GitTag    string
)

// Version format: Major.Minor.Build
const (
	VersionMajor       = 0
	VersionMinor       = 1
	VersionBuild       = 0
	VersionModifier    = "alpha"
	VersionKeyCreated  = "bundlerVersionCreated"
	VersionKeyFinished = "bundlerVersionFinished"

	// DatabaseInfoTable stores schema/version metadata in the embedded kv
	// store; see modules/rawdb for the rest of the bundler's table schema.
	DatabaseInfoTable = "DatabaseInfo"
)

func withModifier(vsn string) string {
	if !isStable() {
		vsn += "-" + VersionModifier
	}
	return vsn
}

func isStable() bool { return VersionModifier == "stable" }

// Version holds the textual version string.
var Version = func() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionBuild)
}()

// VersionWithMeta holds the textual version string including the metadata.
var VersionWithMeta = func() string {
	v := Version
	if VersionModifier != "" {
		v += "-" + VersionModifier
	}
	return v
}()

// ArchiveVersion holds the textual version string with a commit suffix,
// e.g. "0.1.0-alpha-21c059b6".
func ArchiveVersion(gitCommit string) string {
	vsn := withModifier(Version)
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	return vsn
}

func VersionWithCommit(gitCommit, gitDate string) string {
	vsn := VersionWithMeta
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	return vsn
}

// SetVersion records the running binary's version in the DatabaseInfo
// table once, on first open of a given data directory.
func SetVersion(tx kv.RwTx, versionKey string) error {
	key := []byte(versionKey)
	has, err := tx.Has(DatabaseInfoTable, key)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return tx.Put(DatabaseInfoTable, key, []byte(Version))
}
