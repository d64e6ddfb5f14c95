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

// Command bundler-wallet generates the signing key(s) a bundler operator
// needs: its handleOps submission key, and optionally a second relay
// signing key for Flashbots-style submission.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/aa-bundler/params"
)

func main() {
	app := &cli.App{
		Name:      "bundler-wallet",
		Usage:     "Bundler's wallet creation for ERC-4337 Account Abstraction",
		Version:   params.VersionWithCommit(params.GitCommit, ""),
		Action:    run,
		Copyright: "Copyright 2022-2026 The N42 Authors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output-path",
				Usage: "directory to write the generated key file(s) into",
				Value: ".",
			},
			&cli.Uint64Flag{
				Name:  "chain-id",
				Usage: "chain ID the wallet is generated for (recorded in the output filename only)",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "build-fb-wallet",
				Usage: "also generate a second relay signing key for Flashbots-style submission",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	outputPath := cliCtx.String("output-path")
	chainID := cliCtx.Uint64("chain-id")

	if err := os.MkdirAll(outputPath, 0o700); err != nil {
		return fmt.Errorf("create output path: %w", err)
	}

	signerPath, signerAddr, err := generateKeyFile(outputPath, fmt.Sprintf("bundler-%d.key", chainID))
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}
	fmt.Printf("wallet signer: %s (%s)\n", signerAddr, signerPath)

	if cliCtx.Bool("build-fb-wallet") {
		relayPath, relayAddr, err := generateKeyFile(outputPath, fmt.Sprintf("relay-%d.key", chainID))
		if err != nil {
			return fmt.Errorf("generate relay key: %w", err)
		}
		fmt.Printf("relay signer: %s (%s)\n", relayAddr, relayPath)
	}

	return nil
}

// generateKeyFile creates a fresh ECDSA key, writes its raw hex encoding
// (no "0x" prefix, the format entrypoint.NewSigner expects) to name under
// dir with owner-only permissions, and returns the file path and address.
func generateKeyFile(dir, name string) (string, string, error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return "", "", err
	}

	path := filepath.Join(dir, name)
	hexKey := hex.EncodeToString(gethcrypto.FromECDSA(key))
	if err := os.WriteFile(path, []byte(hexKey), 0o600); err != nil {
		return "", "", fmt.Errorf("write key file: %w", err)
	}

	addr := gethcrypto.PubkeyToAddress(key.PublicKey)
	return path, addr.Hex(), nil
}
