package cli

import (
	"context"
	"flag"
	"fmt"
)

type listJobEntry struct {
	JobID         string `json:"job_id"`
	URL           string `json:"url"`
	Stage         string `json:"stage,omitempty"`
	Failed        bool   `json:"failed,omitempty"`
	DateSubmitted string `json:"date_submitted,omitempty"`
	LatestMessage string `json:"latest_message,omitempty"`
	StatusError   string `json:"status_error,omitempty"`
}

type listResult struct {
	User string         `json:"user"`
	Jobs []listJobEntry `json:"jobs"`
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	detailed := fs.Bool("detailed", false, "fetch full status for each job (slower)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return err
	}

	entries := make([]listJobEntry, 0, len(jobs))
	for _, job := range jobs {
		entry := listJobEntry{JobID: job.JobID, URL: job.URL}
		if *detailed {
			// One extra request per job; a failed lookup shouldn't sink
			// the rest of the listing.
			status, err := client.JobStatus(ctx, job.URL)
			if err != nil {
				entry.StatusError = err.Error()
			} else {
				entry.Stage = status.Stage
				entry.Failed = status.Failed
				entry.DateSubmitted = status.DateSubmitted
				if len(status.Messages) > 0 {
					latest := status.Messages[len(status.Messages)-1]
					entry.LatestMessage = "[" + latest.Stage + "] " + truncate(latest.Text, 100)
				}
			}
		}
		entries = append(entries, entry)
	}

	if *jsonOut {
		return printJSON(listResult{User: client.Username(), Jobs: entries})
	}

	if len(entries) == 0 {
		fmt.Println("no jobs found for " + client.Username())
		fmt.Println()
		fmt.Println("submit one with: nsg submit <zip_file> --tool PY_EXPANSE")
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%d job(s) for %s", len(entries), client.Username())))
	for i, e := range entries {
		fmt.Println()
		fmt.Printf("#%d  %s\n", i+1, accentStyle.Render(e.JobID))
		switch {
		case e.StatusError != "":
			fmt.Printf("    status: %s (failed to fetch)\n", mutedStyle.Render("?"))
		case e.Stage != "":
			fmt.Printf("    status: %s %s\n", stageIcon(e.Stage), e.Stage)
			if e.Failed {
				fmt.Printf("    failed: %s\n", errorStyle.Render("yes"))
			}
			if e.DateSubmitted != "" {
				fmt.Printf("    submitted: %s\n", formatTimestamp(e.DateSubmitted))
			}
			if e.LatestMessage != "" {
				fmt.Printf("    latest: %s\n", e.LatestMessage)
			}
		default:
			fmt.Printf("    status: %s\n", mutedStyle.Render("use --detailed for full status"))
		}
		fmt.Printf("    url: %s\n", mutedStyle.Render(e.URL))
	}
	fmt.Println()
	fmt.Println(mutedStyle.Render("check a job:       nsg status <job-id>"))
	fmt.Println(mutedStyle.Render("download results:  nsg download <job-id>"))
	return nil
}
