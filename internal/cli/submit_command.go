package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	tool := fs.String("tool", "PY_EXPANSE", "NSG tool to run the job with")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	archive := fs.Arg(0)
	if archive == "" {
		return errors.New("usage: nsg submit <zip_file> [--tool <name>]")
	}

	info, err := os.Stat(archive)
	if err != nil {
		return fmt.Errorf("archive %s: %w", archive, err)
	}
	if !strings.EqualFold(filepath.Ext(archive), ".zip") && !*jsonOut {
		fmt.Println(warnStyle.Render("⚠") + " file does not have a .zip extension, continuing anyway")
	}

	client, err := newClientFromConfig()
	if err != nil {
		return err
	}

	if !*jsonOut {
		fmt.Println(titleStyle.Render("NSG Job Submission"))
		fmt.Printf("  tool: %s\n", *tool)
		fmt.Printf("  user: %s\n", client.Username())
		fmt.Printf("  file: %s (%s)\n", archive, formatBytesIEC(uint64(info.Size())))
		fmt.Println()
		fmt.Println(accentStyle.Render("→") + " submitting job...")
	}

	status, err := client.SubmitJob(context.Background(), archive, *tool)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(status)
	}

	fmt.Println(okStyle.Render("✓") + " job submitted")
	fmt.Printf("  job id: %s\n", accentStyle.Render(status.JobID))
	fmt.Printf("  stage:  %s\n", status.Stage)
	if status.SelfURI != "" {
		fmt.Printf("  url:    %s\n", mutedStyle.Render(status.SelfURI))
	}
	fmt.Println()
	fmt.Println("Next:")
	fmt.Println("  nsg status " + status.JobID)
	fmt.Println("  nsg download " + status.JobID + "   (once completed)")
	return nil
}
