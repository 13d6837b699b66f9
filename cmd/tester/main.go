package main

import (
	"bufio"
	"chat-relay/client"
	"chat-relay/domain/event"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the tester application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the tester-side environment variables.
type Config struct {
	ServerURL string `env:"RELAY_URL,default=ws://localhost:8080/ws"`
	Token     string `env:"RELAY_TOKEN,required=true"`
	UseCookie bool   `env:"RELAY_USE_COOKIE,default=false"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tester error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, log, client.Options{
		URL:       config.ServerURL,
		Token:     config.Token,
		UseCookie: config.UseCookie,
	})
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = c.Close() }()

	printCommands()

	// Server events are printed as they arrive; stdin drives the session.
	go func() {
		for evt := range c.Events {
			printEvent(evt)
		}
		stop()
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := handleLine(c, line); err != nil {
				color.Red.Printf("! %v\n", err)
			}
		}
	}
}

func handleLine(c *client.Client, line string) error {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "/join":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /join <chat-id>")
		}
		return c.JoinChat(fields[1])
	case "/typing":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /typing <chat-id>")
		}
		return c.Typing(fields[1], true)
	case "/stoptyping":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /stoptyping <chat-id>")
		}
		return c.Typing(fields[1], false)
	case "/attach":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /attach <path>")
		}
		info, err := client.DescribeAttachment(fields[1])
		if err != nil {
			return err
		}
		color.Cyan.Printf("attachment: %s (%s)\n", info["path"], info["contentType"])
		return nil
	case "/quit":
		return c.Close()
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func printCommands() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Command", "Effect"})
	table.Append([]string{"/join <chat-id>", "subscribe to a conversation room"})
	table.Append([]string{"/typing <chat-id>", "send a typing indicator"})
	table.Append([]string{"/stoptyping <chat-id>", "clear the typing indicator"})
	table.Append([]string{"/attach <path>", "sniff an attachment's content type"})
	table.Append([]string{"/quit", "disconnect"})
	table.Render()
}

func printEvent(evt event.Event) {
	switch evt.Kind {
	case event.Connected:
		color.Green.Printf("<< %s %s\n", evt.Kind, string(evt.Data))
	case event.SocketError:
		color.Red.Printf("<< %s %s\n", evt.Kind, string(evt.Data))
	case event.TypingStart, event.TypingStop:
		color.Yellow.Printf("<< %s %s\n", evt.Kind, string(evt.Data))
	default:
		color.White.Printf("<< %s %s\n", evt.Kind, string(evt.Data))
	}
}
