// Package main provides the entry point for the vtlookup CLI.
//
// vtlookup looks up indicators of compromise (IP addresses, domains, URLs and
// file hashes) against the reputation service's v2 API in batches and writes
// one result row per looked-up, duplicate, invalid or failed observable.
//
// Usage:
//
//	vtlookup lookup iocs.csv
//	vtlookup ioc md5_hash 44d88612fea8a8f36de82e1278abb02f
//
// See --help for all available options.
package main

// main is the entry point for vtlookup.
func main() {
	Execute()
}
