// Package main checks text against the moderation rules offline.
// Reads one text per line from stdin and prints the verdict:
//
//	echo "cool dog coin" | modcheck
//	modcheck -remote-url http://localhost:3000/api/moderate < names.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"solana-token-feed/internal/moderation"
)

func main() {
	blocklistPath := flag.String("blocklist", os.Getenv("BLOCKLIST_PATH"), "YAML blocklist overrides")
	remoteURL := flag.String("remote-url", "", "Also consult the moderation proxy for lines that pass locally")
	interval := flag.Duration("interval", moderation.DefaultMinInterval, "Minimum interval between remote calls")
	flag.Parse()

	logger := log.New(os.Stderr, "[modcheck] ", log.LstdFlags)

	bl := moderation.DefaultBlocklist()
	if *blocklistPath != "" {
		loaded, err := moderation.LoadBlocklist(*blocklistPath)
		if err != nil {
			logger.Fatalf("Failed to load blocklist: %v", err)
		}
		bl = loaded
	}

	gate, err := moderation.NewLocalGateFromBlocklist(bl)
	if err != nil {
		logger.Fatalf("Failed to build local gate: %v", err)
	}

	var checker *moderation.Checker
	if *remoteURL != "" {
		checker = moderation.NewChecker(moderation.CheckerOptions{
			Gate:       gate,
			Limiter:    moderation.NewRateLimiter(*interval),
			Classifier: moderation.NewRemoteClient(*remoteURL),
			Logger:     logger,
		})
	}

	blocked, err := run(context.Background(), os.Stdin, os.Stdout, gate, checker, *interval)
	if err != nil {
		logger.Fatalf("Read input: %v", err)
	}
	if blocked > 0 {
		os.Exit(1)
	}
}

// run prints one tab-separated line per input line:
// verdict, stage, rule, text. Remote calls are paced by interval so the
// checker's limiter never skips a line. It returns the number of blocked lines.
func run(ctx context.Context, in io.Reader, out io.Writer, gate *moderation.LocalGate, checker *moderation.Checker, interval time.Duration) (int, error) {
	blocked := 0
	var lastRemote time.Time
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}

		safe := true
		stage := "local"
		rule := "-"
		if reason, term := gate.Explain(text); reason != "" {
			safe = false
			rule = reason + ":" + term
		} else if checker != nil {
			if wait := interval - time.Since(lastRemote); !lastRemote.IsZero() && wait > 0 {
				time.Sleep(wait)
			}
			lastRemote = time.Now()
			callCtx, cancel := context.WithTimeout(ctx, moderation.DefaultRemoteTimeout+time.Second)
			d := checker.CheckText(callCtx, text)
			cancel()
			safe = d.Safe
			stage = string(d.Stage)
		}

		verdict := "ok"
		if !safe {
			verdict = "blocked"
			blocked++
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", verdict, stage, rule, text)
	}
	return blocked, scanner.Err()
}
