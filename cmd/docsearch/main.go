// Package main provides the entry point for the docsearch CLI.
//
// docsearch crawls the Neovim user manual and writes every help tag it
// finds as a fragment URL, one per line, so the list can be fed to a
// search index or a fuzzy finder.
//
// Usage:
//
//	docsearch crawl
//	docsearch crawl -o tags.txt https://neovim.io/doc/user
//	docsearch history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
