/*
Package observability provides dialogue participants that report on running
conversations: Metrics counts lines, choices, events and variable changes as
Prometheus series, and Logger traces every event through slog.

Both are ordinary dialogue.Participant values with high priorities, so they
observe the state other participants settle on:

	m, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	d := dialogue.New(graph, dialogue.WithParticipants(m))
*/
package observability
