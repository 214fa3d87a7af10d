/*
Package dialogue runs compiled scripts as conversations.

A Dialogue walks a shared script.Graph, stopping at each speaker line. Set,
select and event nodes between lines run automatically. The host pulls the
current line with Text, SpeakerID and Choices, and advances with Continue or
Choose:

	d := dialogue.New(graph, dialogue.WithLogger(logger))
	d.Start("")
	for !d.IsEnded() {
		fmt.Println(d.SpeakerDisplayName()+":", d.Text())
		if d.NumberOfChoices() > 1 {
			d.Choose(pick(d.Choices()))
			continue
		}
		d.Continue()
	}

Observers are either Participants, notified in ascending priority order, or
Listeners, plain callback sets. SavedState and RestoreSavedState move the
runtime state in and out of a domain.State for persistence.
*/
package dialogue
