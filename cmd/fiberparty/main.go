package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/htmlhost"
	"github.com/delaneyj/fiberparty/memhost"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const itemsKey = "items"

func main() {
	itemsFlag := &cli.UintFlag{
		Name:  itemsKey,
		Usage: "Number of list items in the sample tree",
		Value: 5,
	}

	cmd := &cli.Command{
		Name:  "fiberparty",
		Usage: "Poke at the reconciler from the command line",
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Run a few updates against an in-memory host and print the mutation log",
				Flags:  []cli.Flag{itemsFlag},
				Action: demo,
			},
			{
				Name:   "dump",
				Usage:  "Print the committed fiber tree as a table",
				Flags:  []cli.Flag{itemsFlag},
				Action: dump,
			},
			{
				Name:   "html",
				Usage:  "Serialize the committed tree to HTML",
				Flags:  []cli.Flag{itemsFlag},
				Action: html,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func todoItem(props fiber.Props) (*fiber.Descriptor, error) {
	label := props["label"].(string)
	attrs := fiber.Props{"class": "todo"}
	if props["done"] == true {
		attrs["class"] = "todo done"
	}
	return fiber.E("li", "", attrs, label), nil
}

func todoList(n int, doneUpTo int) *fiber.Descriptor {
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fiber.E(fiber.ComponentFunc(todoItem),
			fmt.Sprintf("t%d", i),
			fiber.Props{
				"label": fmt.Sprintf("todo #%d", i),
				"done":  i < doneUpTo,
			},
		))
	}
	return fiber.E("div", "", fiber.Props{"id": "app"},
		fiber.E("h1", "", nil, "todos"),
		fiber.E("ul", "", nil, items...),
	)
}

func buildTree(n int) (*memhost.Host, *fiber.Engine, error) {
	h := memhost.New()
	e := fiber.NewEngine(h, h.Container())
	e.ScheduleUpdate(todoList(n, 0), fiber.DefaultLane)
	if err := e.RenderSync(); err != nil {
		return nil, nil, err
	}
	return h, e, nil
}

func demo(ctx context.Context, cmd *cli.Command) error {
	n := int(cmd.Uint(itemsKey))
	h, e, err := buildTree(n)
	if err != nil {
		return err
	}

	log.Printf("mounted %d todos in %d host ops", n, len(h.Ops()))
	for _, op := range h.Ops() {
		fmt.Println(op)
	}

	// Tick one item done per update and watch the mutation stream shrink
	// to just the prop diffs.
	for done := 1; done <= n; done++ {
		h.ResetOps()
		e.ScheduleUpdate(todoList(n, done), fiber.DefaultLane)
		if err := e.RenderSync(); err != nil {
			return err
		}
		log.Printf("update %d: %d host ops", done, len(h.Ops()))
		for _, op := range h.Ops() {
			fmt.Println(op)
		}
	}

	fmt.Println(h.HTML())
	fmt.Printf("op log fingerprint: %016x\n", h.Fingerprint())
	return nil
}

func dump(ctx context.Context, cmd *cli.Command) error {
	_, e, err := buildTree(int(cmd.Uint(itemsKey)))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"depth", "tag", "kind", "key", "index", "flags"})

	var walk func(f *fiber.Fiber, depth int)
	walk = func(f *fiber.Fiber, depth int) {
		kind := ""
		switch f.Tag() {
		case fiber.HostTag:
			kind = f.Kind().(string)
		case fiber.TextTag:
			kind = fmt.Sprintf("%q", f.Text())
		case fiber.ComponentTag:
			kind = "func"
		}
		table.Append([]string{
			fmt.Sprintf("%d", depth),
			f.Tag().String(),
			kind,
			f.Key(),
			fmt.Sprintf("%d", f.Index()),
			f.Flags().String(),
		})
		for c := f.Child(); c != nil; c = c.Sibling() {
			walk(c, depth+1)
		}
	}
	walk(e.Current(), 0)

	table.Render()
	return nil
}

func html(ctx context.Context, cmd *cli.Command) error {
	_, e, err := buildTree(int(cmd.Uint(itemsKey)))
	if err != nil {
		return err
	}
	htmlhost.Render(os.Stdout, e.Current())
	fmt.Println()
	return nil
}
