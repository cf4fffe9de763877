package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jiratools/jiratools/internal/config"
	"github.com/jiratools/jiratools/internal/export"
	"github.com/jiratools/jiratools/internal/jira"
)

var (
	atlassianDomain     string
	configFile          string
	destDir             string
	jqlFlag             string
	outputFormat        string
	downloadAttachments bool
)

var rootCmd = &cobra.Command{
	Use:   "jira-download-issues",
	Short: "Download Jira issues matching a JQL query into local files",
	Long: `Download Jira issues matching a JQL query into local files.

Each issue is written to <dest-dir>/<ISSUE-KEY>.txt (or .yaml), and with
--download-attachments its attachments land in <dest-dir>/<ISSUE-KEY>/.

Credentials come from an INI configuration file with one section per
Atlassian domain:

  [DEFAULTS]
  domain = company.atlassian.net
  jql = project = PROJ ORDER BY created

  [company.atlassian.net]
  user = your_email@company.com
  api_token = YOUR_TOKEN

Environment variables (alternative to config):
  JIRA_API_TOKEN - Jira API token
  JIRA_USERNAME  - Jira username/email

Examples:
  jira-download-issues --jql 'project = PROJ AND status = Done'
  jira-download-issues -f yaml --dest-dir archive
  jira-download-issues -d   # also download attachments`,
	Args: cobra.NoArgs,
	Run:  runDownload,
}

func init() {
	rootCmd.Flags().StringVar(&atlassianDomain, "atlassian-domain", "", "Atlassian domain to download from (default: 'domain' from the DEFAULTS section of the config file)")
	rootCmd.Flags().StringVar(&configFile, "config-file", "config.ini", "INI configuration file with Atlassian credentials")
	rootCmd.Flags().StringVar(&destDir, "dest-dir", "issues", "Output directory where the issues will be saved")
	rootCmd.Flags().StringVar(&jqlFlag, "jql", "", "JQL query to find issues (default: 'jql' from the DEFAULTS section of the config file)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or yaml")
	rootCmd.Flags().BoolVarP(&downloadAttachments, "download-attachments", "d", false, "Download and store attachments")
}

func runDownload(cmd *cobra.Command, args []string) {
	format, err := export.ParseFormat(outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	creds, err := cfg.Credentials(atlassianDomain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	jql := jqlFlag
	if jql == "" {
		jql = cfg.DefaultJQL()
	}
	if jql == "" {
		fmt.Fprintf(os.Stderr, "Error: no JQL query given (use --jql or set 'jql' in the DEFAULTS section of %s)\n", configFile)
		os.Exit(1)
	}

	fmt.Printf("Atlassian domain: %s\n", creds.Domain)
	fmt.Printf("Atlassian user: %s\n", creds.User)
	fmt.Printf("Output issues to the directory: %s\n", destDir)
	fmt.Printf("Output format: %s\n", format)
	fmt.Printf("JQL: %s\n", jql)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := jira.NewClient("https://"+creds.Domain, creds.User, creds.APIToken)
	exporter := &export.Exporter{
		Client:              client,
		Dir:                 destDir,
		Format:              format,
		DownloadAttachments: downloadAttachments,
		OnMessage:           func(msg string) { fmt.Println(msg) },
		OnWarning:           func(msg string) { fmt.Fprintf(os.Stderr, "Warning: %s\n", msg) },
	}

	count, err := exporter.Run(ctx, jql)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloaded %d issues\n", count)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
