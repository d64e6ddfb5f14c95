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

package main

import (
	"github.com/n42blockchain/aa-bundler/conf"
)

// DefaultConfig holds the process-wide configuration flags write into.
// Its defaults are tuned for a bundler pointed at a local dev execution
// client with debug_traceCall available.
var DefaultConfig = struct {
	NodeCfg    conf.NodeConfig
	BundlerCfg conf.BundlerConfig
	LoggerCfg  conf.LoggerConfig
}{
	NodeCfg:    conf.DefaultNodeConfig(),
	BundlerCfg: conf.DefaultBundlerConfig(),
	LoggerCfg:  conf.DefaultLoggerConfig(),
}
