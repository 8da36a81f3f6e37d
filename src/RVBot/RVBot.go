package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/veritrust/review-verify/src/RVApi/data"
)

// NotifierBot forwards accepted review events from the API's redis stream to
// a Discord channel so moderators see anchored and flagged reviews as they
// land.
type NotifierBot struct {
	session   *discordgo.Session
	rdb       *redis.Client
	channelID string
	lastID    string
}

func NewNotifierBot(token, channelID string, rdb *redis.Client) (*NotifierBot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &NotifierBot{
		session:   dg,
		rdb:       rdb,
		channelID: channelID,
		lastID:    "$",
	}, nil
}

func (b *NotifierBot) Start(ctx context.Context) error {
	b.session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		log.Printf("Discord bot logged in as %s", event.User.Username)
		go b.consumeReviewEvents(ctx)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (b *NotifierBot) Close() {
	_ = b.session.Close()
}

func (b *NotifierBot) consumeReviewEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := b.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{data.ReviewStream(), b.lastID},
			Block:   10 * time.Second,
			Count:   16,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Printf("read review stream: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.lastID = msg.ID
				if err := b.postReviewEvent(msg.Values); err != nil {
					log.Printf("post review event %s: %v", msg.ID, err)
				}
			}
		}
	}
}

func (b *NotifierBot) postReviewEvent(values map[string]interface{}) error {
	str := func(key string) string {
		v, _ := values[key].(string)
		return v
	}

	anchored, _ := strconv.ParseBool(str("anchored"))
	label := str("label")

	var headline string
	switch {
	case anchored:
		headline = "✅ Review anchored"
	case label == "FAKE":
		headline = "🚫 Review flagged fake"
	default:
		headline = "⚠️ Review accepted unanchored"
	}

	content := fmt.Sprintf("%s\nProduct: %s | Rating: %s/5 | Label: %s (fake score %s)\nRef: `%s`",
		headline, str("product"), str("rating"), label, str("fake_score"), str("tx_ref"))
	if ref := str("anchor_ref"); ref != "" {
		content += fmt.Sprintf("\nAnchor: `%s`", ref)
	}

	_, err := b.session.ChannelMessageSend(b.channelID, content)
	return err
}

func main() {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatalf("missing env DISCORD_TOKEN")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	rdb := data.MustRedis(redisURL)

	channelID := os.Getenv("DISCORD_CHANNEL_ID")
	if channelID == "" {
		// fall back to the settings table when a database is configured
		if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
			db := data.MustMySQL(dsn)
			if err := data.LoadSettings(db); err != nil {
				log.Printf("load settings: %v", err)
			}
			channelID = data.GetSetting("discord_channel")
		}
	}
	if channelID == "" {
		log.Fatalf("missing env DISCORD_CHANNEL_ID")
	}

	ctx, cancel := context.WithCancel(context.Background())

	bot, err := NewNotifierBot(token, channelID, rdb)
	if err != nil {
		log.Fatalf("discord: %v", err)
	}
	if err := bot.Start(ctx); err != nil {
		log.Fatalf("discord: %v", err)
	}

	log.Printf("ReviewVerify notifier running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	bot.Close()
}
