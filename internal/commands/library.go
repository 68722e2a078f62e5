package commands

import (
	"context"
	"fmt"
)

func cmdList(ctx context.Context, d *Dispatcher, req request) error {
	_, err := d.nav.ShowCategories(ctx, req.msg.ChannelID)
	return err
}

func cmdSearch(ctx context.Context, d *Dispatcher, req request) error {
	term := singleArg(req.args)
	if term == "" {
		return d.reply(ctx, req.msg.ChannelID, "Please specify a search term")
	}
	_, err := d.nav.ShowSearch(ctx, req.msg.ChannelID, term)
	return err
}

func cmdScan(ctx context.Context, d *Dispatcher, req request) error {
	if d.scanner == nil {
		return d.reply(ctx, req.msg.ChannelID, "Library scanning is not available")
	}
	if err := d.reply(ctx, req.msg.ChannelID, "Scanning videos directory, this may take a while..."); err != nil {
		return err
	}
	report, err := d.scanner.Scan(ctx)
	if err != nil {
		return err
	}
	return d.reply(ctx, req.msg.ChannelID, fmt.Sprintf(
		"Finished scanning videos directory: %d videos in %d categories, %d removed",
		report.Videos, report.Categories, report.Removed,
	))
}
