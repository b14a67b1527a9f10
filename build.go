//go:build ignore

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var availableTargets = []target{
	{goos: "linux", goarch: "arm", goarm: "5"},
	{goos: "linux", goarch: "arm", goarm: "6"},
	{goos: "linux", goarch: "arm", goarm: "7"}, // Raspberry Pi 2/3 running 32-bit OS
	{goos: "linux", goarch: "arm64"},
	{goos: "linux", goarch: "386"},
	{goos: "linux", goarch: "amd64"},
}

type target struct {
	goos   string
	goarch string
	goarm  string
}

func (t target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("%s-%s-v%s", t.goos, t.goarch, t.goarm)
	}
	return fmt.Sprintf("%s-%s", t.goos, t.goarch)
}

func (t target) env() []string {
	env := []string{"GOOS=" + t.goos, "GOARCH=" + t.goarch}
	if t.goarm != "" {
		env = append(env, "GOARM="+t.goarm)
	}
	if cgo {
		return append(env, "CGO_ENABLED=1")
	}
	return append(env, "CGO_ENABLED=0")
}

type buildResult struct {
	target         target
	binary         string
	err            error
	stdout, stderr string
}

func (r buildResult) report() {
	fmt.Printf("\n>>> Failed build: project: %s, target: %s: %v\n", project, r.target, r.err)
	for _, out := range []struct{ name, data string }{
		{name: "STDOUT", data: r.stdout},
		{name: "STDERR", data: r.stderr},
	} {
		if out.data == "" {
			continue
		}
		fmt.Printf("======== %s ========\n%s========================\n", out.name, out.data)
	}
}

func buildArgs(binary string) []string {
	args := []string{"build", "-o", binary, "-ldflags", "-X main.version=" + version}
	if tags != "" {
		args = append(args, "-tags", tags)
	}
	if race {
		args = append(args, "-race")
	}
	return append(args, project)
}

func build(t target) buildResult {
	binary := fmt.Sprintf("./builds/%s-%s-%s", basename, version, t)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command("go", buildArgs(binary)...)
	cmd.Env = append(os.Environ(), t.env()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return buildResult{
		target: t,
		binary: binary,
		err:    err,
		stdout: stdout.String(),
		stderr: stderr.String(),
	}
}

// selectTargets resolves comma-separated platform list, "all" selects every available target
func selectTargets(selection string) ([]target, error) {
	if selection == "all" {
		return availableTargets, nil
	}

	var selected []target
	for _, name := range strings.Split(selection, ",") {
		var found bool
		for _, t := range availableTargets {
			if t.String() == name {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", name)
		}
	}
	return selected, nil
}

var selection, project, basename, version, tags string
var cgo, race bool

func init() {
	var names []string
	for _, t := range availableTargets {
		names = append(names, t.String())
	}
	flag.StringVar(&selection, "platforms", "all", fmt.Sprintf(
		"comma-separated target platform list\navailable: %s", strings.Join(names, ",")),
	)
	flag.StringVar(&project, "project", "./cmd/keytutor/", "choose project directory")
	flag.StringVar(&basename, "base", "keytutor", "base filename for output binaries")
	flag.StringVar(&version, "version", "dev", "version reported by -version flag of built binaries")
	flag.StringVar(&tags, "tags", "", "comma-separated build tags")
	flag.BoolVar(&cgo, "cgo", false, "cgo")
	flag.BoolVar(&race, "race", false, "include race detector")
	flag.Parse()
}

func main() {
	log.SetFlags(log.Ltime)

	targets, err := selectTargets(selection)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}

	var names []string
	for _, t := range targets {
		names = append(names, t.String())
	}
	log.Printf("selected targets: %s", strings.Join(names, ", "))
	log.Printf("engaging parallel building for %d targets", len(targets))

	var results = make([]buildResult, len(targets))
	wg := sync.WaitGroup{}
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			log.Printf("building target %s          %s", project, t)
			results[i] = build(t)
			if results[i].err != nil {
				log.Printf("building target %s failed:  %s", project, t)
			} else {
				log.Printf("building target %s success: %s (%s)", project, t, results[i].binary)
			}
		}(i, t)
	}
	wg.Wait()

	var failed int
	for _, r := range results {
		if r.err != nil {
			r.report()
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d of %d builds failed", failed, len(results))
		os.Exit(1)
	}
}
