package v1alpha1

// EventKind names a lifecycle event delivered by the host runtime.
type EventKind string

const (
	EventInstall               EventKind = "install"
	EventStart                 EventKind = "start"
	EventStop                  EventKind = "stop"
	EventConfigChanged         EventKind = "config-changed"
	EventLeaderElected         EventKind = "leader-elected"
	EventLeaderSettingsChanged EventKind = "leader-settings-changed"
	EventUpdateStatus          EventKind = "update-status"
	EventSecretChanged         EventKind = "secret-changed"
	EventSecretRotate          EventKind = "secret-rotate"
	EventRelationCreated       EventKind = "relation-created"
	EventRelationJoined        EventKind = "relation-joined"
	EventRelationChanged       EventKind = "relation-changed"
	EventRelationDeparted      EventKind = "relation-departed"
	EventRelationBroken        EventKind = "relation-broken"
)

// RelationEvent reports whether the kind carries a relation payload.
func (k EventKind) RelationEvent() bool {
	switch k {
	case EventRelationCreated, EventRelationJoined, EventRelationChanged,
		EventRelationDeparted, EventRelationBroken:
		return true
	}
	return false
}

// Event is the envelope the host runtime publishes for a unit. One event is
// processed fully before the next one is consumed.
type Event struct {
	// ID is assigned by the sender, used for redelivery tracking
	ID string `json:"id"`

	Kind EventKind `json:"kind"`

	// Unit is the full unit name, e.g. keystone/0
	Unit string `json:"unit"`

	// Leader reports the leadership flag at the time the event was emitted
	Leader bool `json:"leader"`

	// Config carries the operator supplied raw option values. Present on
	// install and config-changed, absent otherwise.
	Config map[string]interface{} `json:"config,omitempty"`

	// Relation is set for relation-* kinds only
	Relation *RelationPayload `json:"relation,omitempty"`

	// Secret is set for secret-* kinds only
	Secret *SecretPayload `json:"secret,omitempty"`
}

// RelationPayload is the current view of a single relation endpoint as the
// host runtime sees it. Bags are plain string mappings, the schema of the
// keys is defined by the interface name and version.
type RelationPayload struct {
	// Endpoint is the local relation name, e.g. database
	Endpoint string `json:"endpoint"`

	// Interface names the wire protocol both sides agreed on, e.g. mysql_client
	Interface string `json:"interface"`

	// Version of the interface published by the remote application
	Version string `json:"version,omitempty"`

	// RemoteApp is the related application name
	RemoteApp string `json:"remoteApp"`

	// App is the application data bag published by the remote leader
	App map[string]string `json:"app,omitempty"`

	// Units maps remote unit name to its data bag
	Units map[string]map[string]string `json:"units,omitempty"`

	// Departed names the unit that left, set on relation-departed only
	Departed string `json:"departed,omitempty"`
}

// SecretPayload identifies the secret a secret-* event refers to.
type SecretPayload struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// WorkloadState is the observed state of the managed service process.
type WorkloadState string

const (
	WorkloadUnknown    WorkloadState = "unknown"
	WorkloadStopped    WorkloadState = "stopped"
	WorkloadStarting   WorkloadState = "starting"
	WorkloadRunning    WorkloadState = "running"
	WorkloadConfigured WorkloadState = "configured"
)

// StatusReport is published by the agent after every processed event.
type StatusReport struct {
	Unit     string        `json:"unit"`
	App      string        `json:"app"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Workload WorkloadState `json:"workload"`
	// EventID is the event that produced this report
	EventID string `json:"eventId,omitempty"`
}

// ActionRequest invokes a named operation synchronously via request/reply.
type ActionRequest struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// ActionResponse carries the result mapping or a failure message.
type ActionResponse struct {
	ID     string            `json:"id"`
	Error  string            `json:"error,omitempty"`
	Result map[string]string `json:"result,omitempty"`
}

// UnitInfo is returned by the discovery responder so operators can locate
// running agents on the bus.
type UnitInfo struct {
	Unit    string `json:"unit"`
	App     string `json:"app"`
	Charm   string `json:"charm"`
	Version string `json:"version"`
}
