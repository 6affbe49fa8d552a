package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner for an export run
func PrintBanner(serviceName string, cfg *Config, configFile, logFile string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorPurple).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")

	b.PrintTopLine()
	b.PrintCenteredText(strings.ToUpper(serviceName))
	b.PrintCenteredText("GitLab CI Trace Exporter")
	b.PrintSeparatorLine()

	b.PrintKeyValue("Version", GetVersion(), 15)
	b.PrintKeyValue("Build", GetBuild(), 15)
	b.PrintKeyValue("GitLab", cfg.GitLab.URI, 15)
	b.PrintKeyValue("Project", strconv.FormatInt(cfg.GitLab.ProjectID, 10), 15)
	b.PrintKeyValue("Start Page", strconv.Itoa(cfg.Export.StartPage), 15)
	b.PrintBottomLine()

	fmt.Printf("\n")

	fmt.Printf("📋 Configuration:\n")
	if configFile != "" {
		fmt.Printf("   • Config File: %s\n", configFile)
	} else {
		fmt.Printf("   • Config File: (defaults)\n")
	}
	fmt.Printf("   • Traces: %s\n", cfg.Export.OutputDir)
	fmt.Printf("   • Ledger: %s\n", cfg.Storage.DatabasePath)

	if logFile != "" {
		pattern := strings.Replace(logFile, ".log", ".{YYYY-MM-DDTHH-MM-SS}.log", 1)
		fmt.Printf("   • Log File: %s\n", pattern)
	}
	fmt.Printf("\n")
}

// PrintColorizedMessage prints a message with specified color
func PrintColorizedMessage(color, message string) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green
func PrintSuccess(message string) {
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message))
}

// PrintError prints an error message in red
func PrintError(message string) {
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message))
}
