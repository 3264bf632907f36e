// Package apicompiler is the shared core of a compiler for API description
// documents such as OpenAPI and Discovery formats.
//
// Decoders for the individual formats are built on top of the compiler
// package, which provides:
//
//   - A Context tree that records where in a document decoding currently is
//   - CompilerError and ErrorGroup, which collect every diagnostic of a decode
//     pass instead of stopping at the first one
//   - A Reader that loads documents from disk or over HTTP, parses them into
//     YAML node trees, caches both, and resolves $ref values
//   - Extension handlers that interpret vendor extensions the decoders do
//     not understand natively
//
// # Installation
//
//	go get github.com/erraggy/apicompiler
//
// # Quick Start
//
// Read a document and resolve a reference within it:
//
//	import "github.com/erraggy/apicompiler/compiler"
//
//	r := compiler.NewReader()
//	root, err := r.ReadInfoForFile("openapi.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	pet, err := r.ReadInfoForRef("openapi.yaml", "#/components/schemas/Pet")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Collect decode diagnostics:
//
//	var errs []*compiler.CompilerError
//	ctx := compiler.NewRootContext("$root")
//	compiler.MapEntries(root, func(k, v *yaml.Node) {
//		if !compiler.IsMapping(v) {
//			errs = append(errs, compiler.NewError(ctx.ChildForNode(k.Value, k), "must be an object"))
//		}
//	})
//	if g := compiler.FromErrors(errs); g != nil {
//		fmt.Println(g)
//	}
//
// # Command-Line Tool
//
// The apicompiler command exposes the reader from the shell and as an MCP
// server:
//
//	apicompiler read openapi.yaml
//	apicompiler resolve openapi.yaml '#/components/schemas/Pet'
//	apicompiler mcp
//
// See cmd/apicompiler for details.
package apicompiler
