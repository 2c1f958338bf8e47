package models

import (
	"time"

	"github.com/grovetools/console/pkg/scope"
)

// ActionType names a logical server action.
type ActionType string

const (
	ActionDeployToNode         ActionType = "DEPLOY_TO_NODE"
	ActionInstall              ActionType = "INSTALL"
	ActionActivate             ActionType = "ACTIVATE"
	ActionUninstall            ActionType = "UNINSTALL"
	ActionUpdateProductVersion ActionType = "UPDATE_PRODUCT_VERSION"
	ActionStartProcess         ActionType = "START_PROCESS"
	ActionStopProcess          ActionType = "STOP_PROCESS"
	ActionSyncManagedServer    ActionType = "SYNC_MANAGED_SERVER"
	ActionImportProduct        ActionType = "IMPORT_PRODUCT"
	ActionDeleteInstance       ActionType = "DELETE_INSTANCE"
)

// Action is the logical descriptor of a server action. Group is the
// storage/bhive the action runs in.
type Action struct {
	Type     ActionType `json:"type"`
	Group    string     `json:"bhive,omitempty"`
	Instance string     `json:"instance,omitempty"`
	Item     string     `json:"item,omitempty"`
}

// Scope returns the scope the action runs in: [group], [group, instance],
// or nil for a global action.
func (a Action) Scope() scope.Scope {
	switch {
	case a.Group == "":
		return nil
	case a.Instance == "":
		return scope.Scope{a.Group}
	default:
		return scope.Scope{a.Group, a.Instance}
	}
}

// ActionExecution records one run of an action.
type ActionExecution struct {
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
	Source string    `json:"source,omitempty"`
}

// ActionBroadcast is a long-running action as pushed by the server.
type ActionBroadcast struct {
	Action    Action          `json:"action"`
	Execution ActionExecution `json:"execution"`
	Exclusive bool            `json:"exclusive,omitempty"`
}
