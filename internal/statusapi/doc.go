// Package statusapi serves a small authenticated HTTP surface for watching a
// running bot: a JSON status document and a websocket feed of playback
// events.
package statusapi
