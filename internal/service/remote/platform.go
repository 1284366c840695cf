package remote

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies the build flavour requested from the update host.
type Platform struct {
	// Target is the operating system name (linux, darwin, windows).
	Target string
	// Arch is the CPU architecture in the update host's vocabulary.
	Arch string
}

// archNames maps Go architecture names to those used in update manifests.
//
//nolint:gochecknoglobals // Read-only lookup table.
var archNames = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
	"386":   "i686",
	"arm":   "armv7",
}

// DetectPlatform returns the platform of the running process.
func DetectPlatform() Platform {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

func platformFor(goos, goarch string) Platform {
	arch, ok := archNames[goarch]
	if !ok {
		arch = goarch
	}

	return Platform{
		Target: strings.ToLower(goos),
		Arch:   arch,
	}
}

// Key returns the manifest platform key, e.g. "linux-x86_64".
func (p Platform) Key() string {
	return fmt.Sprintf("%s-%s", p.Target, p.Arch)
}

// replacer substitutes both the raw and the percent-encoded spelling of each endpoint variable.
func (p Platform) replacer(currentVersion string) *strings.Replacer {
	variables := [...]struct{ name, value string }{
		{"target", p.Target},
		{"arch", p.Arch},
		{"current_version", currentVersion},
	}

	pairs := make([]string, 0, len(variables)*4) //nolint:mnd // Two spellings, key and value.

	for _, v := range variables {
		pairs = append(pairs,
			"{{"+v.name+"}}", v.value,
			"%7B%7B"+v.name+"%7D%7D", v.value,
		)
	}

	return strings.NewReplacer(pairs...)
}

// RenderEndpoint fills the target, arch and current version placeholders.
func (p Platform) RenderEndpoint(endpoint, currentVersion string) string {
	return p.replacer(currentVersion).Replace(endpoint)
}
