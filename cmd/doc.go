// Package cmd implements the command-line interface for gmailweb.
//
// The root command exposes two subcommands: serve, which runs the OAuth
// demo web application, and version.
package cmd
