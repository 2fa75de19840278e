package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh"
)

// ChatCmd handles single-turn and interactive queries.
type ChatCmd struct {
	Query   string   `short:"q" long:"query" description:"user query (omit for an interactive session)"`
	Thread  string   `short:"t" long:"thread" description:"thread ID to continue (optional)"`
	User    []string `short:"u" long:"user" description:"user context entry key=value (repeatable)"`
	JSON    bool     `short:"j" long:"json" description:"print responses as JSON"`
	Timeout int      `long:"timeout" description:"timeout in seconds per message (0=none)"`
}

func (c *ChatCmd) Execute(_ []string) error {
	userContext, err := parseUserContext(c.User)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tm, err := options.open(ctx)
	if err != nil {
		return err
	}
	defer tm.Close()

	threadID := c.Thread

	send := func(query string) error {
		msgCtx := ctx
		if c.Timeout > 0 {
			var cancel context.CancelFunc
			msgCtx, cancel = context.WithTimeout(ctx, time.Duration(c.Timeout)*time.Second)
			defer cancel()
		}

		resp, err := tm.HandleMessage(msgCtx, travelmesh.Request{
			ThreadID:    threadID,
			Query:       query,
			UserContext: userContext,
		})
		if err != nil {
			return err
		}

		threadID = resp.ThreadID

		return c.print(os.Stdout, resp)
	}

	if strings.TrimSpace(c.Query) != "" {
		return send(c.Query)
	}

	return c.interactive(ctx, os.Stdin, send)
}

func (c *ChatCmd) interactive(ctx context.Context, in io.Reader, send func(string) error) error {
	scanner := bufio.NewScanner(in)

	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := send(line); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}

		fmt.Print("> ")
	}

	return scanner.Err()
}

func (c *ChatCmd) print(w io.Writer, resp travelmesh.Response) error {
	if c.JSON {
		return json.NewEncoder(w).Encode(resp)
	}

	_, err := fmt.Fprintf(w, "[%s] %s\n", resp.FinalAgent, resp.Answer)

	return err
}

// parseUserContext turns key=value pairs into a map.
func parseUserContext(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(entries))

	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid user context entry %q, want key=value", e)
		}

		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return out, nil
}
