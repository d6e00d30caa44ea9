package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo is the version data printed by `prpulse version`.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
	Runtime string
}

// resolveBuildInfo prefers the linker flags and falls back to the module build info,
// so a plain `go install` still reports its module version and VCS revision.
func resolveBuildInfo() buildInfo {
	info := buildInfo{Version: version, Commit: commit, Date: date, Runtime: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

func printBuildInfo(w io.Writer, info buildInfo) {
	_, _ = fmt.Fprintf(w, "prpulse CLI\n")
	_, _ = fmt.Fprintf(w, "  Version: %s\n", info.Version)
	_, _ = fmt.Fprintf(w, "  Commit:  %s\n", info.Commit)
	_, _ = fmt.Fprintf(w, "  Built:   %s\n", info.Date)
	_, _ = fmt.Fprintf(w, "  Runtime: %s\n", info.Runtime)
}

// versionCmd prints build details for bug reports.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the prpulse version and build details",
	Long: `Print the release version, commit, build time and Go runtime of this binary.

Release builds carry linker-stamped values. Binaries built with 'go install'
report their module version and VCS revision instead.

Include this output when reporting a scoring difference between two machines.`,
	Run: func(cmd *cobra.Command, _ []string) {
		printBuildInfo(cmd.OutOrStdout(), resolveBuildInfo())
	},
}
