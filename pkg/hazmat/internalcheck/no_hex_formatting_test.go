package internalcheck

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestNoHexFormatting(t *testing.T) {
	pkgs := loadHazmat(t, packages.NeedTypes|packages.NeedTypesInfo)

	var findings []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				obj := pkg.TypesInfo.Uses[sel.Sel]
				if obj == nil || obj.Pkg() == nil {
					return true
				}
				idx, ok := formatIndex(obj.Pkg().Path(), obj.Name())
				if !ok || len(call.Args) <= idx {
					return true
				}
				lit, ok := call.Args[idx].(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					return true
				}
				format, err := strconv.Unquote(lit.Value)
				if err != nil {
					return true
				}
				if containsHexVerb(format) {
					findings = append(findings, fmt.Sprintf("%s: %%x in a format string", pkg.Fset.Position(lit.Pos())))
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("secret formatting policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func formatIndex(pkgPath, name string) (int, bool) {
	switch pkgPath {
	case "fmt":
		switch name {
		case "Errorf", "Printf", "Sprintf":
			return 0, true
		case "Fprintf":
			return 1, true
		}
	case "log":
		switch name {
		case "Printf", "Fatalf", "Panicf":
			return 0, true
		}
	case "github.com/coinbase/cb-hazmat-go/pkg/hazmat":
		if name == "Errorf" {
			return 2, true
		}
	}
	return 0, false
}

func containsHexVerb(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] != '%' {
			continue
		}
		j := i + 1
		for j < len(s) && strings.ContainsRune("+-# 0123456789.", rune(s[j])) {
			j++
		}
		if j < len(s) && (s[j] == 'x' || s[j] == 'X') {
			return true
		}
		i = j
	}
	return false
}

func TestContainsHexVerb(t *testing.T) {
	for format, want := range map[string]bool{
		"%x":          true,
		"key %02X":    true,
		"%#x":         true,
		"100%% sure":  false,
		"%s and %d":   false,
		"prefix 0x%s": false,
	} {
		if got := containsHexVerb(format); got != want {
			t.Errorf("containsHexVerb(%q) = %t, want %t", format, got, want)
		}
	}
}
