// Package nav implements the reaction-driven navigation engine.
//
// A navigational message (category list, video list, episode list, or search
// results) is paired with a Session in the Registry. Reactions on that message
// reach the Router, which serializes them per session and hands them to the
// session's Handler. Handlers page through their PageState, drill into child
// views, go back by re-querying the catalog from a minimal Parent identity,
// and hand play requests back to the command layer as chat messages. When a
// reaction is ambiguous among the items on screen, the Prompter asks the user
// for a number and waits for the reply.
package nav
