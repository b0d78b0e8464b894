// Command hontel runs the Telnet honeypot: a fake BusyBox/bash shell that
// logs every command an attacker types and rewrites output to hide the
// sandbox it is actually running in.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/stamparm/hontel/internal/deception"
	"github.com/stamparm/hontel/internal/honeyconfig"
	"github.com/stamparm/hontel/internal/honeylog"
	"github.com/stamparm/hontel/internal/honeyserver"
	"github.com/stamparm/hontel/internal/honeysession"
	"github.com/stamparm/hontel/internal/retention"
	"github.com/stamparm/hontel/internal/sampler"
)

var debugFlag bool

func debugf(format string, args ...interface{}) {
	if debugFlag || os.Getenv("HONTEL_DEBUG") != "" {
		log.Printf("DEBUG: "+format, args...)
	}
}

// fatal exits with a "[!] message" line on stderr, matching hontel.py's
// own exit("[!] ...") convention.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[!] %s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "/etc/hontel/config.json", "path to the honeypot's JSON configuration file")
	flag.BoolVar(&debugFlag, "debug", false, "enable debug logging")
	retentionCron := flag.String("retention-cron", "0 0 * * * *", "cron schedule (seconds-enabled) for sweeping expired samples")
	sampleMaxAge := flag.Duration("sample-max-age", 0, "delete captured samples older than this; 0 disables the sweep")
	historyLimit := flag.Int("history-limit", 500, "maximum lines of per-session command history retained")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.Println("INFO: starting hontel")

	cfg, err := honeyconfig.Load(*configPath)
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}

	if cfg.CheckChroot {
		chrooted, checkErr := honeyserver.CheckChroot()
		if checkErr != nil {
			debugf("chroot check failed: %v", checkErr)
		}
		if !chrooted {
			fatal("run inside the chroot environment")
		}
	}

	shellCommand := "/bin/bash"
	welcome := ""
	realBanner := ""
	if cfg.UseBusybox {
		shellCommand = "/bin/busybox sh"
		banner, w, capErr := deception.CaptureBusyboxBanner("/bin/busybox")
		if capErr != nil {
			fatal("please install busybox (e.g. 'apt-get install busybox'): %v", capErr)
		}
		realBanner = banner
		welcome = w
	}

	hostname, _ := os.Hostname()
	table := cfg.BuildTable(hostname, realBanner)

	if err := os.MkdirAll(cfg.SamplesDir, 0755); err != nil {
		debugf("could not create samples directory %s: %v", cfg.SamplesDir, err)
	}

	logger := honeylog.New(cfg.LogPath)
	smp := sampler.New(cfg.SamplesDir, httpRetriever{})

	sessionCfg := honeysession.Config{
		ShellCommand:    shellCommand,
		ShellName:       shellCommand,
		Prompt:          "# ",
		Welcome:         welcome,
		HistoryLimit:    *historyLimit,
		AuthNeedUser:    cfg.AuthUsername != nil,
		AuthNeedPass:    cfg.AuthPassword != nil,
		MaxAuthAttempts: cfg.MaxAuthAttempts,
		Verify:          verifyCallback(cfg),
		Table:           table,
		Sampler:         smp,
		Logger:          logger,
	}

	srv, err := honeyserver.New(honeyserver.Config{
		ListenAddress: cfg.ListenAddress,
		ListenPort:    cfg.ListenPort,
		SessionConfig: sessionCfg,
	})
	if err != nil {
		fatal("%v", err)
	}

	if watcher, werr := honeyconfig.WatchReplacements(*configPath, func(reloaded *honeyconfig.Config) {
		log.Println("INFO: configuration changed, reloading replacement table")
		table.Replace(reloaded.BuildTable(hostname, realBanner).Entries())
	}); werr != nil {
		debugf("not watching %s for changes: %v", *configPath, werr)
	} else {
		defer watcher.Close()
	}

	if *sampleMaxAge > 0 {
		sweeper := retention.New(cfg.SamplesDir, *sampleMaxAge)
		cronJob, cerr := sweeper.Schedule(*retentionCron)
		if cerr != nil {
			debugf("could not schedule sample retention sweep: %v", cerr)
		} else {
			defer cronJob.Stop()
		}
	}

	log.Fatal(srv.ListenAndServe())
}

// verifyCallback returns the credential check built from the configured
// username/password; a nil pointer on either side means that check always
// passes, matching AUTH_USERNAME/AUTH_PASSWORD = None disabling the prompt.
func verifyCallback(cfg *honeyconfig.Config) func(user, pass string) bool {
	wantUser, wantPass := cfg.AuthUsername, cfg.AuthPassword
	return func(user, pass string) bool {
		if wantUser != nil && user != *wantUser {
			return false
		}
		if wantPass != nil && pass != *wantPass {
			return false
		}
		return true
	}
}

// httpRetriever fetches attacker-supplied URLs to a temporary file so
// sampler.Sampler can hash and archive whatever a wget/curl command tried
// to pull in. Failures are reported via ok=false, never an error: a
// malformed or unreachable URL is routine attacker noise, not a fault.
type httpRetriever struct{}

func (httpRetriever) Retrieve(rawURL string) (string, bool) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	tmp, err := os.CreateTemp("", "hontel-sample-")
	if err != nil {
		return "", false
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", false
	}
	return tmp.Name(), true
}
