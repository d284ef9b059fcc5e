// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pterm/pterm"
)

// debugf prints keychain diagnostics when SQLAGENT_VERBOSE=1. Values are never printed.
func debugf(format string, args ...any) {
	if os.Getenv("SQLAGENT_VERBOSE") == "1" {
		pterm.Debug.Printfln("keychain: "+format, args...)
	}
}

// securityBackend implements keychain operations using macOS security command.
type securityBackend struct{}

// newSecurityBackend creates a new macOS security command backend.
func newSecurityBackend() (*securityBackend, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{}, nil
}

// run executes security with args and returns trimmed stdout and raw stderr.
func (s *securityBackend) run(args ...string) (string, string, error) {
	cmd := exec.Command("security", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), stderr.String(), err
}

// Set stores a key-value pair in macOS keychain.
func (s *securityBackend) Set(key, value string) error {
	debugf("set %s (%d bytes)", key, len(value))

	_, stderr, err := s.run("add-generic-password",
		"-a", ServiceName, // account name
		"-s", key, // service name
		"-w", value,
		"-U", // update if exists
	)
	if err != nil {
		debugf("set %s failed: %v", key, err)
		return fmt.Errorf("failed to store '%s' in keychain: %s: %w", key, stderr, err)
	}
	return nil
}

// Get retrieves a value from macOS keychain.
func (s *securityBackend) Get(key string) (string, error) {
	out, stderr, err := s.run("find-generic-password",
		"-a", ServiceName,
		"-s", key,
		"-w", // output password only
	)
	if err != nil {
		if strings.Contains(stderr, "could not be found") {
			debugf("get %s: not found", key)
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keychain: %s: %w", stderr, err)
	}
	debugf("get %s (%d bytes)", key, len(out))
	return out, nil
}

// Delete removes a key from macOS keychain.
func (s *securityBackend) Delete(key string) error {
	_, stderr, err := s.run("delete-generic-password", "-a", ServiceName, "-s", key)
	if err != nil {
		if strings.Contains(stderr, "could not be found") {
			return nil
		}
		return fmt.Errorf("failed to delete from keychain: %s: %w", stderr, err)
	}
	return nil
}
