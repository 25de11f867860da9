//go:build mage

// Package main provides build targets for ogsm using Mage.
//
// Usage:
//
//	mage build      Compile the ogsm binary to bin/
//	mage test       Run all tests
//	mage testRace   Run all tests with the race detector
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install ogsm to GOPATH/bin
//	mage demo       Seed a scratch store and export it
//	mage stats      Print Go line counts
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "ogsm"
	binaryDir  = "bin"
	cmdDir     = "./cmd/ogsm"
	demoDir    = "bin/demo"
)

// Build compiles the ogsm binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestRace runs all tests with the race detector.
func TestRace() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Demo seeds a scratch bolt store under bin/demo and exports every plan
// with verification.
func Demo() error {
	mg.Deps(Build)
	if err := os.RemoveAll(demoDir); err != nil {
		return err
	}
	bin := filepath.Join(binaryDir, binaryName)
	common := []string{
		"--config-dir", filepath.Join(demoDir, "config"),
		"--data-dir", filepath.Join(demoDir, "data"),
		"--driver", "bolt",
	}
	steps := [][]string{
		{"init"},
		{"seed"},
		{"list", "plans"},
		{"export"},
	}
	for _, step := range steps {
		if err := sh.RunV(bin, append(common, step...)...); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints Go lines of code, split into production and test.
func Stats() error {
	var prodLines, testLines int
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += n
		} else {
			prodLines += n
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
