// Package main provides the entry point for the validity CLI.
//
// validity rates how trustworthy and relevant a web page is for a search
// query. It blends domain trust, semantic relevance, fact-check results,
// sentiment bias and citation count into one score between 0 and 100.
//
// Usage:
//
//	validity rate "<query>" <url>
//	validity trust set example.org 85
//	validity auth set factcheck
//
// See --help for all available options.
package main

func main() {
	Execute()
}
