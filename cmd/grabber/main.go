// Package main provides the grabber command line.
//
// Usage:
//
//	grabber decode page.html
//	grabber crawl grabber.yaml
//
// See --help for all available options.
package main

func main() {
	Execute()
}
