// Package playback runs the ffmpeg process that streams a video to the
// configured output and manages the current playlist.
//
// A single Player owns at most one ffmpeg process. Pause and resume suspend
// the process with SIGSTOP/SIGCONT so the stream picks up where it left off.
// When a track ends on its own the player advances to the next playlist entry;
// next and prev wrap around, and entries whose files have disappeared are
// skipped. Listeners receive an Event for every state change, which the
// status API forwards to websocket clients.
package playback
