//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the headless testbed. ANIMA_CONFIG points at a TOML config file.
func (Run) Testbed() error {
	args := []string{"run", "."}
	if cfg := os.Getenv("ANIMA_CONFIG"); cfg != "" {
		args = append(args, "-config", cfg)
	}
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
