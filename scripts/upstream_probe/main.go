// Command upstream_probe checks that the scheduler backend endpoints the
// gateway depends on are reachable and reports their latency. Endpoints
// marked critical fail the run when unreachable.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type probe struct {
	Target   target
	Status   int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base        string
		auth        string
		targetsPath string
		timeout     time.Duration
		attempts    int
	)

	flag.StringVar(&base, "base", "http://localhost:8000", "Scheduler backend base URL")
	flag.StringVar(&auth, "auth", "", "Authorization header to forward")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "upstream_probe", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.IntVar(&attempts, "attempts", 1, "Probes per endpoint; latency is averaged")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}
	if attempts < 1 {
		attempts = 1
	}

	client := &http.Client{Timeout: timeout}
	var (
		probes   []probe
		breaking int
	)

	for _, t := range targets {
		p := probeTarget(client, base, auth, t, attempts)
		if !p.healthy() && t.Critical {
			breaking++
		}
		probes = append(probes, p)
	}

	printReport(probes)

	fmt.Printf("Unreachable critical endpoints: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func (p probe) healthy() bool {
	// 4xx still proves the endpoint is routed; probes carry no real payload.
	return p.Error == nil && p.Status < 500
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probeTarget(client *http.Client, base, auth string, tgt target, attempts int) probe {
	p := probe{Target: tgt}
	var total time.Duration
	for i := 0; i < attempts; i++ {
		status, duration, err := performRequest(client, base, auth, tgt)
		if err != nil {
			p.Error = err
			return p
		}
		p.Status = status
		total += duration
	}
	p.Duration = total / time.Duration(attempts)
	return p
}

func performRequest(client *http.Client, base, auth string, tgt target) (int, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, 0, err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, time.Since(start), nil
}

func printReport(results []probe) {
	fmt.Println("Upstream Probe Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.healthy() {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d | Avg latency: %s | Critical: %t\n", res.Status, res.Duration, res.Target.Critical)
	}
}
