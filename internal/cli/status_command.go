package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"nsg-cli/internal/nsg"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	job := fs.Arg(0)
	if job == "" {
		return errors.New("usage: nsg status <job-id-or-url>")
	}

	client, err := newClientFromConfig()
	if err != nil {
		return err
	}

	status, err := client.JobStatus(context.Background(), job)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(status)
	}

	fmt.Println(titleStyle.Render("Job " + status.JobID))
	fmt.Printf("  stage:     %s %s\n", stageIcon(status.Stage), status.Stage)
	if status.Failed {
		fmt.Printf("  failed:    %s\n", errorStyle.Render("yes"))
	}
	if status.DateSubmitted != "" {
		fmt.Printf("  submitted: %s\n", formatTimestamp(status.DateSubmitted))
	}
	if status.HasResults() {
		fmt.Printf("  results:   %s available\n", okStyle.Render("✓"))
	} else {
		fmt.Printf("  results:   %s not yet available\n", warnStyle.Render("⏳"))
	}

	if len(status.Messages) > 0 {
		fmt.Println()
		fmt.Println("Recent messages:")
		recent := status.Messages
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		for _, msg := range recent {
			fmt.Printf("  [%s] %s\n", accentStyle.Render(msg.Stage), formatTimestamp(msg.Timestamp))
			if msg.Text != "" {
				fmt.Printf("      %s\n", truncate(msg.Text, 200))
			}
		}
	}

	fmt.Println()
	printNextAction(status)
	return nil
}

func printNextAction(status nsg.JobStatus) {
	switch status.Stage {
	case nsg.StageCompleted:
		fmt.Println(okStyle.Render("✓") + " job completed - download results with:")
		fmt.Println("  nsg download " + status.JobID)
	case nsg.StageFailed:
		fmt.Println(errorStyle.Render("✗") + " job failed - check the messages above for details")
	case nsg.StageQueue, nsg.StageSubmitted:
		fmt.Println(warnStyle.Render("⏳") + " job is queued - check again later:")
		fmt.Println("  nsg status " + status.JobID)
	case nsg.StageRunning, "RUN":
		fmt.Println(warnStyle.Render("⟳") + " job is running - check again later:")
		fmt.Println("  nsg status " + status.JobID)
	default:
		fmt.Println(mutedStyle.Render("?") + " unknown job stage: " + status.Stage)
	}
}
