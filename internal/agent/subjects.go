package agent

import (
	"fmt"
	"strings"
)

const streamName = "charmd"

// unitID flattens a unit name into a subject token, keystone/0 -> keystone-0.
func unitID(unit string) string {
	return strings.ReplaceAll(unit, "/", "-")
}

// EventSubject is where the host runtime publishes lifecycle events for a unit.
func EventSubject(app, unit string) string {
	return fmt.Sprintf("%s.%s.unit.%s.events", streamName, app, unitID(unit))
}

// StatusSubject is where the agent publishes a report after every event.
func StatusSubject(app, unit string) string {
	return fmt.Sprintf("%s.%s.unit.%s.status", streamName, app, unitID(unit))
}

// ActionSubject serves synchronous operator actions via request/reply.
func ActionSubject(app, unit string) string {
	return fmt.Sprintf("%s.%s.unit.%s.actions", streamName, app, unitID(unit))
}

// RelationSubject is where the agent publishes bags for endpoints it provides.
func RelationSubject(app, unit, endpoint string) string {
	return fmt.Sprintf("%s.%s.unit.%s.relation.%s", streamName, app, unitID(unit), endpoint)
}

// LookupSubject lets operators discover running agents of an application.
func LookupSubject(app string) string {
	return fmt.Sprintf("%s.%s.lookup", streamName, app)
}
