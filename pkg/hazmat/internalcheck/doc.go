// Package internalcheck holds static policy tests over the hazmat packages.
//
// The tests load the module's packages with golang.org/x/tools/go/packages
// and walk their syntax trees. They reject comparisons of byte slices or
// byte arrays with == or != and format strings that render values with %x.
// Secret material has to go through crypto/subtle and logging.Redacted.
//
// The package has no exported API.
package internalcheck
