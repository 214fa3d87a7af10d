package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/parley"
)

func ExampleEngine_StartSession() {
	eng, err := parley.New()
	if err != nil {
		log.Fatal(err)
	}
	script := "Innkeeper: Room or drink?\n" +
		"\t* A room\n" +
		"\t\tInnkeeper: Up the stairs.\n" +
		"\t* A drink\n" +
		"\t\tInnkeeper: Coming right up.\n"
	if err := eng.Register("inn", script); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, err := eng.StartSession(ctx, "guest", "inn", "")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s\n", view.Speaker, view.Text)
	for _, c := range view.Choices {
		fmt.Printf("  %d) %s\n", c.Index+1, c.Text)
	}

	view, err = eng.Choose(ctx, "guest", 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s\n", view.Speaker, view.Text)

	view, err = eng.Continue(ctx, "guest")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("ended:", view.Ended)

	// Output:
	// Innkeeper: Room or drink?
	//   1) A room
	//   2) A drink
	// Innkeeper: Coming right up.
	// ended: true
}
