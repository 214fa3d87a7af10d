/*
Package parley runs branching dialogue scripts.

Scripts are plain text where indentation gives structure: speaker lines,
player choices nested under them, conditional blocks, variable assignments,
labels and gotos. A script compiles once into an immutable graph that any
number of conversations share.

# Usage

The Engine keeps compiled scripts in a library and conversations in a
session store, so a host only deals in session IDs and views:

	eng, err := parley.New(
		parley.WithLibrary(library.NewDir("./scripts")),
		parley.WithStore(file.NewStore("./.parley/sessions")),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, err := eng.StartSession(ctx, "player-1", "tavern", "")
	if err != nil {
		log.Fatal(err)
	}
	for !view.Ended {
		fmt.Printf("%s: %s\n", view.Speaker, view.Text)
		if len(view.Choices) > 0 {
			view, err = eng.Choose(ctx, view.SessionID, pick(view.Choices))
		} else {
			view, err = eng.Continue(ctx, view.SessionID)
		}
		if err != nil {
			log.Fatal(err)
		}
	}

Every session call reloads the saved state, replays it onto a fresh
dialogue over the shared graph and saves the result under a per-session
lock. Hosts that keep a conversation in memory can skip the store and use
NewDialogue directly (see package dialogue).

# Adapters

  - Stores: memory, file (JSON), redis and SQL (SQLite or PostgreSQL).
  - Library sources: a directory of .sud files or an in-memory map.
  - Surfaces: a terminal runner, an HTTP API with a websocket stream and
    the parley CLI.
*/
package parley
