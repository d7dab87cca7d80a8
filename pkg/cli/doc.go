/*
Package cli holds helpers shared by the intake-engine commands.

Output formatting: results print as text (Summary() when the value has
one), indented JSON, or CSV for Tabular values.

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, bundle); err != nil {
		return err
	}

Errors: ConfigError, CommandError and IntegrityError classify command
failures, and ExitCode maps any returned error to a process exit code.
Evaluation failures exit with ExitEvaluation.

Batch evaluations report progress on stderr through SimpleProgress.
SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM for
graceful shutdown of serve.
*/
package cli
