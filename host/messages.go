// Package host implements the data side of the editor protocol: it answers
// object list, describe, query and saved-query requests and pushes results
// back as inbound messages.
package host

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rlch/soql"
	"github.com/rlch/soql/results"
	"github.com/rlch/soql/store"
)

// Command names a message.
type Command string

// Outbound commands, sent by an editor to the host.
const (
	CmdRequestObjectList        Command = "requestObjectList"
	CmdRequestToolingObjectList Command = "requestToolingObjectList"
	CmdRequestObjectMeta        Command = "requestObjectMeta"
	CmdRunQuery                 Command = "runQuery"
	CmdSaveQuery                Command = "saveQuery"
	CmdDeleteQuery              Command = "deleteQuery"
	CmdExportCSV                Command = "exportCSV"
	CmdExportJSON               Command = "exportJSON"
	CmdLoadPage                 Command = "loadPage"
)

// Inbound commands, pushed by the host to an editor.
const (
	CmdObjectsList        Command = "objectsList"
	CmdToolingObjectsList Command = "toolingObjectsList"
	CmdObjectMeta         Command = "objectMeta"
	CmdShowResult         Command = "showResult"
	CmdExecutionFeedback  Command = "executionFeedback"
	CmdError              Command = "error"
	CmdSavedQueries       Command = "savedQueries"
	CmdRestoreState       Command = "restoreState"
	CmdIconMap            Command = "iconMap"
	CmdInjectPage         Command = "injectPage"
	CmdOrgInfo            Command = "orgInfo"
)

var outbound = map[Command]bool{
	CmdRequestObjectList: true, CmdRequestToolingObjectList: true, CmdRequestObjectMeta: true,
	CmdRunQuery: true, CmdSaveQuery: true, CmdDeleteQuery: true,
	CmdExportCSV: true, CmdExportJSON: true, CmdLoadPage: true,
}

var inbound = map[Command]bool{
	CmdObjectsList: true, CmdToolingObjectsList: true, CmdObjectMeta: true,
	CmdShowResult: true, CmdExecutionFeedback: true, CmdError: true,
	CmdSavedQueries: true, CmdRestoreState: true, CmdIconMap: true,
	CmdInjectPage: true, CmdOrgInfo: true,
}

// ErrUnknownCommand is returned when decoding a message with an unknown
// command.
var ErrUnknownCommand = errors.New("host: unknown command")

// Message is the flat wire envelope shared by every command. Only the fields
// relevant to Command are set.
type Message struct {
	Command Command `json:"command"`

	IsTooling  bool            `json:"isTooling,omitempty"`
	ObjectType string          `json:"objectType,omitempty"`
	Query      string          `json:"query,omitempty"`
	Label      string          `json:"label,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	PageName   string          `json:"pageName,omitempty"`

	Objects  []soql.SchemaDescriptor `json:"objects,omitempty"`
	ObjMeta  *soql.SchemaDescriptor  `json:"objMeta,omitempty"`
	Data     *results.Result         `json:"data,omitempty"`
	RowCount int                     `json:"rowCount,omitempty"`
	Time     string                  `json:"time,omitempty"`
	Message  string                  `json:"message,omitempty"`
	Queries  []store.SavedQuery      `json:"queries,omitempty"`
	IconMap  map[string]string       `json:"iconMap,omitempty"`
	HTML     string                  `json:"html,omitempty"`
	OrgInfo  *soql.OrgInfo           `json:"orgInfo,omitempty"`
}

// MarshalJSON writes rowCount on every execution feedback, zero included.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message

	if m.Command != CmdExecutionFeedback {
		return json.Marshal(plain(m))
	}

	return json.Marshal(struct {
		plain
		RowCount int `json:"rowCount"`
	}{plain: plain(m), RowCount: m.RowCount})
}

// Outbound reports whether the message is a request to the host.
func (m Message) Outbound() bool {
	return outbound[m.Command]
}

// Decode parses one envelope.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}

	if !outbound[m.Command] && !inbound[m.Command] {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownCommand, m.Command)
	}

	return m, nil
}

// ErrorMessage builds an error event.
func ErrorMessage(format string, args ...any) Message {
	return Message{Command: CmdError, Message: fmt.Sprintf(format, args...)}
}

// TextContent encodes a CSV export payload.
func TextContent(s string) json.RawMessage {
	b, _ := json.Marshal(s)

	return b
}
