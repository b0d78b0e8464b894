package deception

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
)

// busyboxBannerPattern matches the applet-less BusyBox self-identification
// line, e.g. "BusyBox v1.22.1 (2014-05-22 20:22:01 UTC) multi-call binary.",
// taking everything up to and including the closing paren around the
// build date, the same greedy `.+\)` the original honeypot used.
var busyboxBannerPattern = regexp.MustCompile(`.+\)`)

// DefaultFakeBanner is the synthetic BusyBox banner presented to the
// attacker in place of whatever this sandbox's real BusyBox build reports.
const DefaultFakeBanner = "BusyBox v1.18.4 (2012-04-17 18:58:31 CST)"

// CaptureBusyboxBanner runs busyboxPath with no arguments (which prints a
// usage banner, typically exiting non-zero) and extracts the first line up
// to and including its last ')', e.g. "BusyBox vX.Y.Z (build date)". It
// returns the captured banner text and the welcome message built from it.
func CaptureBusyboxBanner(busyboxPath string) (banner, welcome string, err error) {
	out, runErr := exec.Command(busyboxPath).CombinedOutput()
	if runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); !isExit {
			return "", "", fmt.Errorf("deception: running %s: %w", busyboxPath, runErr)
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return "", "", fmt.Errorf("deception: %s produced no output", busyboxPath)
	}
	first := scanner.Text()

	banner = busyboxBannerPattern.FindString(first)
	if banner == "" {
		return "", "", fmt.Errorf("deception: no banner found in %q", first)
	}

	welcome = fmt.Sprintf("\n%s built-in shell (ash)\nEnter 'help' for a list of built-in commands.\n", banner)
	return banner, welcome, nil
}

// shellLinePrefix builds the regex stripping a shell's own error-message
// self-identification, e.g. "/bin/busybox: line 12: foo: not found" becomes
// "foo: not found". Unlike Table's literal entries this must be a regex:
// the line number varies per invocation, so it cannot be a fixed substring.
func shellLinePrefix(shellName string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(shellName) + `: line \d+: `)
}

// StripShellLinePrefix removes every occurrence of "<shellName>: line N: "
// from data, so error messages from the real shell child don't leak its
// invocation name to the attacker.
func StripShellLinePrefix(shellName string, data []byte) []byte {
	if shellName == "" {
		return data
	}
	return shellLinePrefix(shellName).ReplaceAll(data, nil)
}
