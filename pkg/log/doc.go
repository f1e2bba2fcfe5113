/*
Package log provides structured logging for terminator using zerolog.

A single global Logger is configured once by Init, normally from the CLI
before any subcommand runs. Packages derive child loggers that carry a
fixed field:

	log.WithComponent("compiler")   // component=compiler
	log.WithCompileID(id)           // compile_id=<uuid>

# Output

Compiled graphs are written to stdout, so logs go to stderr unless
Config.Output says otherwise. Console output is the default; JSONOutput
switches to one JSON object per line for log shippers.

	log.Init(log.Config{
		Level:      log.ParseLevel("debug"),
		JSONOutput: true,
	})

# Levels

  - debug: per-compilation details (sites, resources, pool counts) and
    store reads and writes
  - info: one line per CLI operation
  - warn: recoverable surprises such as an unrecognized platform version
  - error: rejected pillars

Level filtering is global (zerolog.SetGlobalLevel); child loggers created
before Init still honour the configured level.
*/
package log
