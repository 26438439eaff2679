// Package object implements the ownership state machine over an arena of
// records.
//
// Every record carries exactly one designation: uniquely held by a
// principal, embedded in a parent, held in a dynamic slot, or frozen.
// Operations check the designation on every entry point:
//
//	UniquelyHeld(p) --Transfer--> UniquelyHeld(q)
//	UniquelyHeld(p) --Freeze----> Frozen           (terminal)
//	UniquelyHeld(p) --attach----> Slotted(parent)  (package slot)
//	Slotted(parent) --remove----> UniquelyHeld(sender)
//	UniquelyHeld(p) --Delete----> gone             (slots orphaned)
//
// Records live in an arena indexed by identifier. Embedding and slotting
// are index references plus the designation, never nested ownership, so
// deletion is a table operation.
//
// All mutation happens through a Tx overlay. The Tx is committed or
// dropped as a whole; the engine package decides which.
package object
