// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

// Package pathutil provides string handling for document locators and
// $ref values.
//
// A locator is either a filesystem path or an absolute http/https URL. A
// reference has the form "<file-part>#<fragment>", where the file part may
// be empty (same document) and the fragment is a "/"-separated list of
// mapping keys with a leading slash:
//
//	file, fragment := pathutil.SplitRef("models.yaml#/defs/Widget")
//	// file == "models.yaml", fragment == "/defs/Widget"
//
//	pathutil.ResolveRelative("api/root.yaml", file) // "api/models.yaml"
//	pathutil.FragmentSegments(fragment)            // ["defs", "Widget"]
//
// Relative file parts are resolved against the directory of the
// referencing document, not the document that started the read, so chains
// of includes compose.
//
// # Output Path Sanitization
//
// [SanitizeOutputPath] validates and cleans output file paths for the CLI.
// It rejects symlinks:
//
//	safe, err := pathutil.SanitizeOutputPath(userProvidedPath)
//	if err != nil {
//	    return err
//	}
package pathutil
