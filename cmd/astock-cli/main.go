package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"astock/pkg/astock"
)

const version = "0.1.0"

func main() {
	server := flag.String("server", "http://localhost:8080", "astock-server base URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: astock-cli [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  symbols                    List available symbols\n")
		fmt.Fprintf(os.Stderr, "  analysis <symbol>          Show the latest signal score\n")
		fmt.Fprintf(os.Stderr, "  watch                      List the watchlist\n")
		fmt.Fprintf(os.Stderr, "  watch add <symbol> [name]  Add a symbol to the watchlist\n")
		fmt.Fprintf(os.Stderr, "  watch rm <symbol>          Remove a symbol from the watchlist\n")
		fmt.Fprintf(os.Stderr, "  predict <symbol> <UP|DOWN> Record a directional prediction\n")
		fmt.Fprintf(os.Stderr, "  check                      Resolve pending predictions\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	client := astock.NewClient(*server)

	switch args[0] {
	case "version":
		fmt.Printf("astock-cli %s\n", version)

	case "symbols":
		symbols, err := client.Symbols(ctx)
		if err != nil {
			fatal(err)
		}
		for _, s := range symbols {
			fmt.Println(s)
		}

	case "analysis":
		if len(args) < 2 {
			fatalf("usage: astock-cli analysis <symbol>")
		}
		rep, err := client.Analysis(ctx, args[1])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s  %s  close %.2f  score %d/%d  %s\n",
			rep.Symbol, rep.Date, rep.Close, rep.Score, rep.MaxScore, rep.Verdict)
		for _, r := range rep.Reasons {
			fmt.Printf("  - %s\n", r)
		}

	case "watch":
		runWatch(ctx, client, args[1:])

	case "predict":
		if len(args) < 3 {
			fatalf("usage: astock-cli predict <symbol> <UP|DOWN>")
		}
		p, err := client.Predict(ctx, args[1], "", args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("prediction #%d: %s %s from %.2f\n", p.ID, p.Symbol, p.Direction, p.InitialPrice)

	case "check":
		res, err := client.CheckPredictions(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("checked %d pending predictions, %d resolved\n", res.Checked, len(res.Resolved))
		for _, p := range res.Resolved {
			fmt.Printf("  #%d %s %s from %.2f -> %s\n",
				p.ID, p.Symbol, p.Direction, p.InitialPrice, p.Status)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

func runWatch(ctx context.Context, client *astock.Client, args []string) {
	if len(args) == 0 {
		entries, err := client.Watchlist(ctx)
		if err != nil {
			fatal(err)
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Symbol, e.Name)
		}
		return
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			fatalf("usage: astock-cli watch add <symbol> [name]")
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		if err := client.AddWatch(ctx, args[1], name); err != nil {
			fatal(err)
		}
		fmt.Printf("added %s\n", args[1])

	case "rm":
		if len(args) < 2 {
			fatalf("usage: astock-cli watch rm <symbol>")
		}
		if err := client.RemoveWatch(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("removed %s\n", args[1])

	default:
		fatalf("unknown watch subcommand: %s", args[0])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
