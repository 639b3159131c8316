//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Build compiles the slangbench demo binary.
func Build() error {
	return sh.RunV("go", "build", "-o", "bin/slangbench", "./cmd/slangbench")
}

// Preview compiles the windowed preview binary, which requires the
// preview build tag since it links GLFW.
func Preview() error {
	return sh.RunV("go", "build", "-tags", "preview", "-o", "bin/slangpreview", "./cmd/slangpreview")
}

// Test runs the full test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet across the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet then Test, the default pre-commit gate.
func Check() {
	mg.Deps(Vet, Test)
}
