package main

import (
	"context"
	"fmt"
)

// ThreadCmd groups thread management sub-commands.
type ThreadCmd struct {
	New      ThreadNewCmd      `command:"new" description:"Create an empty thread and print its ID"`
	Delete   ThreadDeleteCmd   `command:"delete" description:"Delete a thread"`
	Truncate ThreadTruncateCmd `command:"truncate" description:"Keep only the most recent messages of a thread"`
	Agent    ThreadAgentCmd    `command:"agent" description:"Print the active agent of a thread"`
}

type ThreadNewCmd struct{}

func (c *ThreadNewCmd) Execute(_ []string) error {
	ctx := context.Background()

	tm, err := options.open(ctx)
	if err != nil {
		return err
	}
	defer tm.Close()

	id, err := tm.NewThread(ctx)
	if err != nil {
		return err
	}

	fmt.Println(id)

	return nil
}

type ThreadDeleteCmd struct {
	Args struct {
		ThreadID string `positional-arg-name:"thread-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ThreadDeleteCmd) Execute(_ []string) error {
	ctx := context.Background()

	tm, err := options.open(ctx)
	if err != nil {
		return err
	}
	defer tm.Close()

	return tm.DeleteThread(ctx, c.Args.ThreadID)
}

type ThreadTruncateCmd struct {
	Keep int `short:"k" long:"keep" description:"number of messages to keep" default:"20"`
	Args struct {
		ThreadID string `positional-arg-name:"thread-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ThreadTruncateCmd) Execute(_ []string) error {
	ctx := context.Background()

	tm, err := options.open(ctx)
	if err != nil {
		return err
	}
	defer tm.Close()

	return tm.TruncateThread(ctx, c.Args.ThreadID, c.Keep)
}

type ThreadAgentCmd struct {
	Args struct {
		ThreadID string `positional-arg-name:"thread-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ThreadAgentCmd) Execute(_ []string) error {
	ctx := context.Background()

	tm, err := options.open(ctx)
	if err != nil {
		return err
	}
	defer tm.Close()

	name, err := tm.CurrentAgent(ctx, c.Args.ThreadID)
	if err != nil {
		return err
	}

	fmt.Println(name)

	return nil
}
