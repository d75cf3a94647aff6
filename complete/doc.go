// Package complete decides what can follow the cursor in a partially typed
// query and turns that decision into an editable suggestion list.
//
// A pass runs Resolve, Classify and Build in order. Every step is a pure
// function of its inputs: session state that survives between passes is
// carried in a Session value that Classify returns rather than mutates.
// Engine wires the steps together for editors.
package complete
