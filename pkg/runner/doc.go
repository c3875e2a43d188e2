/*
Package runner implements the console transport of the storefront.

It reads lines from an input, turns them into domain.Event values and prints the
engine replies. Buttons of the last reply are numbered so a user can tap one by
typing its number.

# Key Components

  - Runner: The read, handle, print loop for a single console user.
  - IOHandler: Decouples how replies are shown and lines are read (text or JSON lines).
  - SanitizeInput: Size and control-character policy shared by every transport.

# Usage

	r := runner.New(engine,
		runner.WithUserID("console"),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
