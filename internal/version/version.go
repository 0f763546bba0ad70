package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// Build metadata, overridable at link time:
//
//	go build -ldflags "-X boxrt/internal/version.Version=0.2.0 -X boxrt/internal/version.GitCommit=$(git rev-parse HEAD)"
var (
	// Version is the semantic version of boxrt.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the machine-readable form of the build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current returns the build metadata of the running binary.
func Current() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Colored renders the version with each numeric component colored.
// Pre-release and build suffixes are left plain.
func Colored(v string) string {
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2]) + suffix
}

// Pretty renders Info for terminal output.
func (i Info) Pretty() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "boxrt %s\n", Colored(i.Version))
	if i.GitCommit != "" {
		commit := i.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&sb, "commit: %s\n", commit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&sb, "built:  %s\n", i.BuildDate)
	}
	fmt.Fprintf(&sb, "go:     %s %s\n", i.GoVersion, i.Platform)
	return sb.String()
}
