package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "login":
		return runLogin(args[1:])
	case "list":
		return runList(args[1:])
	case "status":
		return runStatus(args[1:])
	case "submit":
		return runSubmit(args[1:])
	case "download":
		return runDownload(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("nsg: command-line client for the Neuroscience Gateway REST API")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  nsg login")
	fmt.Println("  nsg submit model.zip --tool PY_EXPANSE")
	fmt.Println("  nsg status <job-id>")
	fmt.Println("  nsg download <job-id>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login     save and verify NSG credentials")
	fmt.Println("  list      list all jobs for the authenticated user")
	fmt.Println("  status    check the status of a specific job")
	fmt.Println("  submit    submit a new job archive to NSG")
	fmt.Println("  download  download results from a completed job")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Jobs may be referenced by handle, /job/ path, or full URL")
	fmt.Println("  - NSG_USERNAME/NSG_PASSWORD/NSG_APP_KEY/NSG_URL override stored config")
}
