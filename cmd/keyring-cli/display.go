package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

// asResult turns a failure reply into a Go error so every subcommand's
// RunE can just check err, and returns nil otherwise.
func asResult(reply rpcserver.Reply, callErr error) error {
	if callErr != nil {
		return callErr
	}
	if reply.Type == "failure" {
		return fmt.Errorf("keyringd: %s (code %d)", reply.Failure.Info, reply.Failure.Code)
	}
	return nil
}

func printAccount(info model.AccountInfo) {
	fmt.Printf("id:        %s\n", info.Id)
	fmt.Printf("name:      %s\n", info.Name)
	if info.Details != "" {
		fmt.Printf("details:   %s\n", info.Details)
	}
	fmt.Printf("key:       %s\n", info.KeyId)
	fmt.Printf("fprint:    %s\n", info.Fingerprint)
	fmt.Printf("path:      %s\n", info.Path)
	if info.Application != nil {
		fmt.Printf("app:       %s\n", *info.Application)
	}
	if info.KeySource != nil {
		fmt.Printf("source:    %s/%s\n", info.KeySource.ParentFingerprint, info.KeySource.Path)
	}
	if len(info.Assets) > 0 {
		ids := make([]string, len(info.Assets))
		for i, a := range info.Assets {
			ids[i] = a.String()
		}
		fmt.Printf("assets:    %v\n", ids)
	}
}

func hexBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value: %w", err)
	}
	return b, nil
}
