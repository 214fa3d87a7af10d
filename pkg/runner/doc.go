/*
Package runner implements the interactive play loop for dialogues.

It is the bridge between a dialogue.Dialogue and a player at a terminal (or
a program speaking JSON lines). The runner prints each line, reads a choice
through a pluggable IOHandler and, when given a store, saves the dialogue
after every step so play can resume later.

# Key Components

  - Runner: The loop that advances the dialogue.
  - IOHandler: Decouples how lines are shown and answers are read.
  - TextHandler: Numbered choices for interactive CLI usage.
  - JSONHandler: One JSON view per line for scripted hosts.

# Usage

	d := dialogue.New(graph)
	d.Start("")

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithStore(store),
		runner.WithSessionID("player-1"),
	)
	if err := r.Run(ctx, d); err != nil {
		log.Fatal(err)
	}
*/
package runner
