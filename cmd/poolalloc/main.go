// Command poolalloc reports the memory pool planned for every heap
// allocation of a Go package.
//
// Usage:
//
//	poolalloc ./...
//
// Or as a vet tool:
//
//	go vet -vettool=$(which poolalloc) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/mpyw/poolalloc"
)

func main() {
	singlechecker.Main(poolalloc.Analyzer)
}
