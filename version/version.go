// Package version carries the build information set by the linker:
//
//	go build -ldflags "-X github.com/grovetools/console/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "none"
	Branch    = "unknown"
	BuildDate = "unknown"
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsDev reports whether the binary was built without version flags.
func (i Info) IsDev() bool {
	return i.Version == "dev" || strings.HasSuffix(i.Version, "-dirty")
}

// String renders one aligned line per field.
func (i Info) String() string {
	rows := [][2]string{
		{"Commit", i.Commit},
		{"Branch", i.Branch},
		{"Built", i.BuildDate},
		{"Go", i.GoVersion},
		{"Platform", i.Platform},
	}
	var b strings.Builder
	for n, r := range rows {
		if n > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %-9s %s", r[0]+":", r[1])
	}
	return b.String()
}
