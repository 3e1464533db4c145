// Package compat gates source builds on the version of the installed GHC.
package compat

import (
	"context"
	"errors"
	"fmt"

	"github.com/cperrin88/agdaup/pkg/data"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/version"
)

// CheckBuildToolchain verifies that installed satisfies required. An empty
// required means no constraint is known; an empty installed means no GHC was
// found. The check has no side effects.
func CheckBuildToolchain(required, installed string) error {
	if required == "" {
		return errutils.ErrGhcVersionConstraintNotFound
	}
	if installed == "" {
		return errutils.ErrGhcNotFound
	}
	c, err := ParseConstraint(required)
	if err != nil {
		return err
	}
	v, err := version.Parse(installed)
	if err != nil {
		return fmt.Errorf("installed ghc: %w", err)
	}
	if !c.Check(v) {
		return &errutils.GhcVersionMismatchError{Required: required, Installed: installed}
	}
	return nil
}

// Checker looks up constraints in a compatibility table.
type Checker struct {
	Table   data.Table
	Package string // defaults to "Agda"
}

// NewChecker returns a checker over table for the Agda package.
func NewChecker(table data.Table) *Checker {
	return &Checker{Table: table, Package: "Agda"}
}

// Constraint returns the GHC constraint for the package at pkgVersion.
func (c *Checker) Constraint(pkgVersion string) (string, error) {
	pkg := c.pkg()
	constraint, ok := c.Table.Constraint(pkg, pkgVersion)
	if !ok {
		return "", fmt.Errorf("%s %s: %w", pkg, pkgVersion, errutils.ErrGhcVersionConstraintNotFound)
	}
	return constraint, nil
}

// Check gates a build of the package at pkgVersion with installedGhc.
func (c *Checker) Check(pkgVersion, installedGhc string) error {
	required, err := c.Constraint(pkgVersion)
	if err != nil {
		return err
	}
	if err := CheckBuildToolchain(required, installedGhc); err != nil {
		return fmt.Errorf("%s %s: %w", c.pkg(), pkgVersion, err)
	}
	return nil
}

func (c *Checker) pkg() string {
	if c.Package == "" {
		return "Agda"
	}
	return c.Package
}

// DetectGhc returns the version printed by "ghc --numeric-version", or "" when
// ghc cannot be run. Only an expired deadline is reported as an error.
func DetectGhc(ctx context.Context, runner process.Runner) (string, error) {
	out, err := process.Output(ctx, runner, "ghc", "--numeric-version")
	if err != nil {
		if errors.Is(err, errutils.ErrTimeout) {
			return "", err
		}
		return "", nil
	}
	return out, nil
}
