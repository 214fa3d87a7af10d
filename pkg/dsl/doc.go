/*
Package dsl provides a Go DSL for programmatically writing parley scripts.

The builder emits ordinary script source, so a built script compiles through
the same compiler and obeys the same rules as one written by hand. This is
useful for generated dialogue, unit tests and IDE autocompletion.

Example usage:

	b := dsl.New("tavern").Header("Gold", "10")

	b.Label("start").
		Say("NPC", "What will it be?").
		Choice("Buy a drink", func(c *dsl.Block) {
			c.Set("Gold", "{Gold} - 2").Say("NPC", "Cheers.")
		}).
		Choice("Leave", func(c *dsl.Block) { c.End() })

	g, err := b.Build()
	// or: engine.Register(b.Name(), b.Source())
*/
package dsl
