/*
Package runner implements the user-facing side of a bake run.

It provides the consoles the engine reports through, and the signal handling
that turns Ctrl+C into cancellation of the running task.

# Key Components

  - TextConsole: interactive CLI output with task context prefixes, optional
    timestamps and color markup ([!R]red[!], [!G]green[!], [!b]bold[!]).
  - JSONConsole: the same messages as JSON-Lines, for headless callers.
  - Policy: answers confirmation prompts without asking (e.g. --yes).
  - SignalManager: SIGINT/SIGTERM aware run context.

# Usage

	console := runner.NewTextConsole(os.Stdin, os.Stdout,
		runner.WithTimestamps(true),
		runner.WithPolicy(runner.AutoApprove()),
	)
	engine := bake.New(bake.WithConsole(console))
*/
package runner
