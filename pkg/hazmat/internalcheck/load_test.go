package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

const hazmatPattern = "github.com/coinbase/cb-hazmat-go/pkg/hazmat/..."

func loadHazmat(t *testing.T, mode packages.LoadMode) []*packages.Package {
	t.Helper()
	pkgs, err := packages.Load(&packages.Config{Mode: mode | packages.NeedName | packages.NeedFiles | packages.NeedSyntax}, hazmatPattern)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatalf("no packages matched %s", hazmatPattern)
	}
	for _, pkg := range pkgs {
		for _, perr := range pkg.Errors {
			t.Fatalf("package %s: %v", pkg.PkgPath, perr)
		}
	}
	return pkgs
}
