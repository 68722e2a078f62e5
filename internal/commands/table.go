package commands

// table lists commands in help order.
var table = []command{
	{name: "play", usage: "<file_path|title>", summary: "Play a video", section: "Video Playback", run: cmdPlay},
	{name: "stop", summary: "Stop playback", section: "Video Playback", run: cmdStop},
	{name: "pause", summary: "Pause playback", section: "Video Playback", run: cmdPause},
	{name: "resume", summary: "Resume playback", section: "Video Playback", run: cmdResume},

	{name: "list", summary: "Browse video categories", section: "Video Management", run: cmdList},
	{name: "search", usage: "<term>", summary: "Search for videos", section: "Video Management", run: cmdSearch},
	{name: "scan", summary: "Scan the videos directory for new files", section: "Video Management", run: cmdScan},

	{name: "playlist", usage: "[file ...]", summary: "Play a playlist, or show the current one", section: "Playlist Management", run: cmdPlaylist},
	{name: "enqueue", usage: "<file ...>", summary: "Append files to the playlist", section: "Playlist Management", run: cmdEnqueue},
	{name: "next", summary: "Play the next playlist item", section: "Playlist Management", run: cmdNext},
	{name: "prev", summary: "Play the previous playlist item", section: "Playlist Management", run: cmdPrev},

	{name: "channel", usage: "[voice_channel_id]", summary: "Show channel mappings, or map this channel to a voice channel", section: "Channel Management", run: cmdChannel},
	{name: "add_channel", usage: "<voice|command> <channel_id> [name]", summary: "Register a channel", section: "Channel Management", run: cmdAddChannel},
	{name: "map_channel", usage: "<command_channel_id> <voice_channel_id>", summary: "Map a command channel to a voice channel", section: "Channel Management", run: cmdMapChannel},

	{name: "hwinfo", summary: "Show host and encoder information", section: "System", run: cmdHWInfo},
	{name: "help", summary: "Show this help message", section: "System", run: cmdHelp},
}
