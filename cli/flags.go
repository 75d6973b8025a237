package cli

import (
	"log"

	"github.com/abiiranathan/goflag"
)

// fatalOnErr runs a command handler and aborts on failure. Command
// errors are user-facing; the stack is never interesting.
func fatalOnErr(fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Fatalln(err)
		}
	}
}

func DefineFlags(config *Config, runserver func()) *goflag.Context {
	// Flags required by multiple subcommands
	fileFlag := goflag.Flag{
		FlagType:  goflag.FlagFilePath,
		Name:      "file",
		ShortName: "f",
		Value:     &config.File,
		Usage:     "The PDF file to redact",
		Required:  true,
		Validator: nil,
	}

	pageFlag := goflag.Flag{
		FlagType:  goflag.FlagInt,
		Name:      "page",
		ShortName: "p",
		Value:     &config.Page,
		Usage:     "Page number (1-based)",
		Required:  false,
		Validator: goflag.Min(1),
	}

	// Create flag context.
	ctx := goflag.NewContext()

	// global flags
	ctx.AddFlag(goflag.FlagInt, "concurrency", "c",
		&config.MaxConcurrency,
		"No of pages to be searched at once",
		false, goflag.Min(1), goflag.Max(100))

	// register subcommands
	ctx.AddSubCommand("info", "Show document and session summary", fatalOnErr(func() error {
		return runInfo(config)
	})).AddFlagPtr(&fileFlag)

	ctx.AddSubCommand("mark", "Mark a rectangle for redaction", fatalOnErr(func() error {
		return runMark(config)
	})).AddFlagPtr(&fileFlag).AddFlagPtr(&pageFlag).
		AddFlag(goflag.FlagString, "rect", "r", &config.RectSpec,
			"Rectangle in document points: x0,y0,x1,y1", true)

	ctx.AddSubCommand("search", "Search text and optionally mark every hit", fatalOnErr(func() error {
		return runSearch(config)
	})).AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagString, "term", "t", &config.Term, "The text to search for", true).
		AddFlag(goflag.FlagBool, "add", "a", &config.AddMarks,
			"Add a pending mark for every hit", false)

	ctx.AddSubCommand("list", "List pending marks", fatalOnErr(func() error {
		return runList(config)
	})).AddFlagPtr(&fileFlag)

	ctx.AddSubCommand("remove", "Remove one pending mark", fatalOnErr(func() error {
		return runRemove(config)
	})).AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagString, "id", "i", &config.MarkID, "The mark id to remove", true)

	ctx.AddSubCommand("clear", "Clear pending marks on a page, or all of them", fatalOnErr(func() error {
		return runClear(config)
	})).AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagInt, "page", "p", &config.ClearPage,
			"Only clear this page (1-based); 0 clears every page", false)

	ctx.AddSubCommand("render", "Render a page to a PNG image", fatalOnErr(func() error {
		return runRender(config)
	})).AddFlagPtr(&fileFlag).AddFlagPtr(&pageFlag).
		AddFlag(goflag.FlagString, "out", "o", &config.Output, "The output PNG path", false).
		AddFlag(goflag.FlagFloat64, "dpi", "d", &config.DPI, "Render resolution", false)

	ctx.AddSubCommand("apply", "Permanently apply all pending marks", fatalOnErr(func() error {
		return runApply(config)
	})).AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagString, "output", "o", &config.Output,
			"Where to write the redacted copy", false)

	// Run server
	ctx.AddSubCommand("serve", "Start the browser-based redaction viewer", runserver).
		AddFlagPtr(&fileFlag).
		AddFlag(goflag.FlagInt, "port", "P", &config.Port, "The port to run the server on", false).
		AddFlag(goflag.FlagFloat64, "dpi", "d", &config.DPI, "Render resolution", false)

	return ctx
}
