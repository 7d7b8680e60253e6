package cmd

// Options holds the shared command-line options for the piwatch CLI.
type Options struct {
	Once      bool   // run a single poll cycle, then exit
	DryRun    bool   // print notifications instead of posting them
	Format    string // ledger list output format (table, json)
	Verbosity int
}
