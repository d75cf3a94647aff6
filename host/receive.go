package host

import (
	"github.com/rlch/soql/metadata"
)

// Outbox sends outbound messages to a host. It satisfies
// metadata.Requester so a resolver can request schemas through it.
type Outbox func(Message)

// RequestObjectMeta implements metadata.Requester.
func (o Outbox) RequestObjectMeta(name string, tooling bool) {
	o(Message{Command: CmdRequestObjectMeta, ObjectType: name, IsTooling: tooling})
}

// RequestObjectList asks for the catalog of the given mode.
func (o Outbox) RequestObjectList(tooling bool) {
	cmd := CmdRequestObjectList
	if tooling {
		cmd = CmdRequestToolingObjectList
	}

	o(Message{Command: cmd, IsTooling: tooling})
}

// UpdateKind classifies what an inbound message changed.
type UpdateKind int

const (
	UpdateNone UpdateKind = iota
	// UpdateObjects means a catalog arrived.
	UpdateObjects
	// UpdateSchema means a described object arrived; Update.Object names it.
	UpdateSchema
	// UpdateError means the host reported a failure; Update.Message has it.
	UpdateError
)

// Update is the effect of one inbound message on the completion caches.
type Update struct {
	Kind    UpdateKind
	Object  string
	Message string
}

// Receiver applies inbound messages to a resolver and its cache.
type Receiver struct {
	Resolver *metadata.Resolver
}

// Receive applies m. Messages that do not concern completion yield
// UpdateNone and are left to the caller.
func (r Receiver) Receive(m Message) Update {
	switch m.Command {
	case CmdObjectsList, CmdToolingObjectsList:
		r.Resolver.Cache().SetObjects(m.Command == CmdToolingObjectsList, m.Objects)

		return Update{Kind: UpdateObjects}
	case CmdObjectMeta:
		if !r.Resolver.Deliver(m.ObjMeta) {
			return Update{}
		}

		return Update{Kind: UpdateSchema, Object: m.ObjMeta.Name}
	case CmdError:
		r.Resolver.Fail()

		return Update{Kind: UpdateError, Message: m.Message}
	}

	return Update{}
}
