// Package bot wires the navigation engine, command dispatcher, player, and
// status server around a chat transport and owns the process lifecycle,
// including the single-instance lock.
package bot
