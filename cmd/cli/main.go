package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"yt-chatbot-be/internal/bootstrap"
	"yt-chatbot-be/internal/config"
	"yt-chatbot-be/internal/dto"
	"yt-chatbot-be/internal/pkg/serverutils"

	"github.com/fatih/color"
)

const help = `Commands:
  /load <youtube url>   process a video (replaces the current one)
  /video                show the loaded video
  /clear                clear this conversation
  /reset                remove the loaded video
  /quit                 exit
Anything else is asked as a question about the loaded video.`

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		color.Red("Invalid configuration: %v", err)
		os.Exit(1)
	}

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		color.Red("Startup failed: %v", err)
		os.Exit(1)
	}
	defer container.Close()

	ctx := context.Background()
	if err := container.ConsumerService.Consume(ctx); err != nil {
		color.Red("Startup failed: %v", err)
		os.Exit(1)
	}

	session := container.ChatService.CreateSession(ctx)

	color.Cyan("YouTube Video Chatbot")
	fmt.Println(help)
	if len(os.Args) > 1 {
		load(ctx, container, os.Args[1])
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgYellow).Print("\n> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case line == "/help":
			fmt.Println(help)
		case strings.HasPrefix(line, "/load"):
			load(ctx, container, strings.TrimSpace(strings.TrimPrefix(line, "/load")))
		case line == "/video":
			v := container.IngestionService.Current()
			if !v.Loaded {
				color.Yellow("No video loaded")
				continue
			}
			color.Green("%s (%d chunks)", v.VideoId, v.Chunks)
		case line == "/clear":
			if err := container.ChatService.ClearHistory(ctx, session.Id); err != nil {
				printError(err)
				continue
			}
			color.Green("Conversation cleared")
		case line == "/reset":
			if err := container.IngestionService.Reset(ctx); err != nil {
				printError(err)
				continue
			}
			color.Green("Video removed")
		default:
			res, err := container.ChatService.Ask(ctx, &dto.AskRequest{SessionId: session.Id, Question: line})
			if err != nil {
				printError(err)
				continue
			}
			fmt.Println(res.Answer)
		}
	}
}

func load(ctx context.Context, c *bootstrap.Container, url string) {
	if url == "" {
		color.Red("Usage: /load <youtube url>")
		return
	}
	color.Cyan("Processing video...")
	res, err := c.IngestionService.Ingest(ctx, &dto.IngestVideoRequest{Url: url})
	if err != nil {
		printError(err)
		return
	}
	color.Green("Video processed: %s, %d chunks stored", res.VideoId, res.Stored)
}

func printError(err error) {
	var appErr *serverutils.AppError
	if errors.As(err, &appErr) {
		color.Red("%s", appErr.Message)
		return
	}
	color.Red("Error: %v", err)
}
