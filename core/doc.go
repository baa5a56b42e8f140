// Package core defines the shared domain types of GroupFlow: participants,
// turns, the append-only transcript and the conversation state machine that
// the chat manager drives. All other packages depend on core; core depends
// on nothing but the standard library and the id generator.
package core
