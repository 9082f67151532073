package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"nsg-cli/internal/nsg"
)

type downloadResult struct {
	JobID      string               `json:"job_id"`
	OutputDir  string               `json:"output_dir"`
	TotalBytes uint64               `json:"total_bytes"`
	Files      []nsg.DownloadedFile `json:"files"`
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	output := fs.String("output", "./nsg_results", "output directory")
	yes := fs.Bool("yes", false, "skip confirmation prompts")
	progress := fs.Bool("progress", true, "show live transfer progress")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	job := fs.Arg(0)
	if job == "" {
		return errors.New("usage: nsg download <job-id-or-url> [--output <dir>]")
	}

	client, err := newClientFromConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	status, err := client.JobStatus(ctx, job)
	if err != nil {
		return err
	}

	if !*jsonOut {
		fmt.Println(titleStyle.Render("Download results for " + status.JobID))
		fmt.Printf("  stage:  %s %s\n", stageIcon(status.Stage), status.Stage)
		fmt.Printf("  output: %s\n", *output)
	}

	if status.Stage != nsg.StageCompleted && !*yes {
		fmt.Println()
		fmt.Println(warnStyle.Render("⚠") + " job is not completed yet; results may be missing or partial")
		ok, err := promptConfirm("continue anyway? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("cancelled")
			return nil
		}
	}

	if !*yes && dirHasEntries(*output) {
		fmt.Println(warnStyle.Render("⚠") + " output directory is not empty; files may be overwritten")
		ok, err := promptConfirm("continue? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("cancelled")
			return nil
		}
	}

	p := newTransferProgress(*progress && !*jsonOut)
	p.Start()
	downloaded, err := client.DownloadResults(ctx, job, *output, p.Observe)
	if err != nil {
		p.Stop(errorStyle.Render("✗") + " download failed")
		var notReady *nsg.ResultsNotReadyError
		if errors.As(err, &notReady) {
			fmt.Println(warnStyle.Render("⏳") + " results are not available yet - try again once the job completes")
		}
		return err
	}

	var totalBytes uint64
	for _, f := range downloaded {
		totalBytes += f.Size
	}
	p.Stop(okStyle.Render("✓") + fmt.Sprintf(" downloaded %d file(s), %s", len(downloaded), formatBytesIEC(totalBytes)))

	if *jsonOut {
		return printJSON(downloadResult{
			JobID:      status.JobID,
			OutputDir:  *output,
			TotalBytes: totalBytes,
			Files:      downloaded,
		})
	}

	if len(downloaded) == 0 {
		fmt.Println(warnStyle.Render("⚠") + " the job produced no output files")
		return nil
	}

	fmt.Println()
	for _, f := range downloaded {
		fmt.Printf("  %s %s (%s)\n", okStyle.Render("✓"), f.Filename, formatBytesIEC(f.Size))
	}
	fmt.Println()
	fmt.Printf("saved to %s\n", *output)
	for _, f := range downloaded {
		if f.Filename == "stderr.txt" {
			fmt.Println(mutedStyle.Render("stderr.txt exists - check it for errors"))
		}
	}
	return nil
}

func dirHasEntries(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
