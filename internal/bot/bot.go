// Package bot implements a Slack bot reporting the latest room data on
// request.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/clambin/go-common/slackbot"
	"github.com/clambin/sinum-monitor/internal/poller"
	"github.com/clambin/sinum-monitor/pkg/sinum"
	"github.com/slack-go/slack"
)

type Bot struct {
	slack   SlackBot
	poller  poller.Poller
	logger  *slog.Logger
	lock    sync.RWMutex
	update  poller.Update
	updated bool
}

type SlackBot interface {
	Register(name string, command slackbot.CommandFunc)
	Run(ctx context.Context) error
	Send(channel string, attachments []slack.Attachment) error
}

func New(slackBot SlackBot, p poller.Poller, logger *slog.Logger) *Bot {
	b := Bot{
		slack:  slackBot,
		poller: p,
		logger: logger,
	}
	slackBot.Register("rooms", b.ReportRooms)
	slackBot.Register("refresh", b.DoRefresh)

	return &b
}

// Run caches the poller's updates so commands answer from the latest data.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Debug("started")
	defer b.logger.Debug("stopped")

	ch := b.poller.Subscribe()
	defer b.poller.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			b.lock.Lock()
			b.update = update
			b.updated = true
			b.lock.Unlock()
		}
	}
}

func (b *Bot) ReportRooms(_ context.Context, _ ...string) []slack.Attachment {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if !b.updated {
		return []slack.Attachment{{
			Color: "bad",
			Text:  "no updates yet. please check back later",
		}}
	}

	text := make([]string, 0, len(b.update.Rooms))
	for _, room := range b.update.Rooms {
		text = append(text, describeRoom(room))
	}

	slackColor := "bad"
	slackTitle := ""
	slackText := "no rooms found"

	if len(text) > 0 {
		slackColor = "good"
		slackTitle = "rooms:"
		sort.Strings(text)
		slackText = strings.Join(text, "\n")
	}

	return []slack.Attachment{{
		Color: slackColor,
		Title: slackTitle,
		Text:  slackText,
	}}
}

func (b *Bot) DoRefresh(_ context.Context, _ ...string) []slack.Attachment {
	b.poller.Refresh()
	return []slack.Attachment{{
		Color: "good",
		Text:  "refreshing room data",
	}}
}

func describeRoom(room sinum.Room) string {
	readings := make([]string, 0, 2)
	if room.Temperature != nil {
		readings = append(readings, fmt.Sprintf("%.1fºC", *room.Temperature))
	}
	if room.Humidity != nil {
		readings = append(readings, fmt.Sprintf("%.1f%%", *room.Humidity))
	}
	if len(readings) == 0 {
		readings = append(readings, "no readings")
	}

	state := "idle"
	switch {
	case room.HeatingOn:
		state = "heating"
	case room.CoolingOn:
		state = "cooling"
	}

	return fmt.Sprintf("%s: %s (%s)", room.Name, strings.Join(readings, ", "), state)
}
