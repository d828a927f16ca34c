/*
Package questionnaire holds the questionnaire graph and the pure engine that walks it.

The graph is data: a table of steps (graph.yaml, embedded) listing per state the
answer field, its input type, the prompt text and the edges. Conditional edges
force-null the fields of the steps they bypass, so "injuries: no" always leaves
injury_details null and a fixed training location always leaves
location_details null.

	graph, _ := questionnaire.DefaultGraph()
	engine := questionnaire.NewEngine(graph)

	s := engine.Start("subject-1")
	s, err := engine.Apply(s, domain.Answer(domain.StateGoal, "strength"))

Apply is a pure function of (session, event); persistence and per-subject
ordering are handled by package session.
*/
package questionnaire
