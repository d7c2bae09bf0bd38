//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 30 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	cases := []robustCase{
		{
			name: "unknown command",
			args: staticArgs("cut"),
			wantContains: []string{
				`unknown command "cut"`,
			},
		},
		{
			name: "unknown flag",
			args: staticArgs("run", "--wat"),
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "range non number",
			args: staticArgs("align", "--range", "nope"),
			wantContains: []string{
				`invalid argument "nope" for "--range"`,
			},
		},
		{
			name: "range zero",
			args: staticArgs("align", "--range", "0"),
			wantContains: []string{
				"config: time_range must be a positive number of seconds",
			},
		},
		{
			name: "run takes no args",
			args: staticArgs("run", "extra"),
			wantContains: []string{
				`unknown command "extra"`,
			},
		},
		{
			name: "watch with clips",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tmp := t.TempDir()
				tr := filepath.Join(tmp, "t.json")
				if err := os.WriteFile(tr, []byte("[]"), 0o644); err != nil {
					t.Fatalf("write transcript fixture: %v", err)
				}
				return []string{"caption", "--watch", "--transcript", tr, "foo_clip_1.mp4"}
			},
			wantContains: []string{
				"--watch does not take clip arguments",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidInputs(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	testdata := filepath.Join(repoRoot, "internal", "itest", "testdata")

	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("time_range: [1, 2\n"), 0o644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	cases := []robustCase{
		{
			name: "missing transcript",
			args: staticArgs("align", "--transcript", filepath.Join(testdata, "does-not-exist.json"), "--keywords", "x"),
			wantContains: []string{
				"stat transcript:",
			},
		},
		{
			name: "no keywords",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tr := filepath.Join(t.TempDir(), "t.json")
				if err := os.WriteFile(tr, []byte("[]"), 0o644); err != nil {
					t.Fatalf("write transcript fixture: %v", err)
				}
				return []string{"align", "--transcript", tr}
			},
			wantContains: []string{
				"keywords are empty",
			},
		},
		{
			name: "transcript not json",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tr := filepath.Join(t.TempDir(), "t.json")
				if err := os.WriteFile(tr, []byte("hello"), 0o644); err != nil {
					t.Fatalf("write transcript fixture: %v", err)
				}
				return []string{"align", "--transcript", tr, "--keywords", "x", "--out", t.TempDir()}
			},
			wantContains: []string{
				"input transcript:",
			},
		},
		{
			name: "extract without window table",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				src := filepath.Join(t.TempDir(), "in.mp4")
				if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
					t.Fatalf("write source fixture: %v", err)
				}
				return []string{"extract", "--source", src, "--out", t.TempDir()}
			},
			wantContains: []string{
				"input window table:",
			},
		},
		{
			name: "config from env is not yaml",
			args: staticArgs("align", "--keywords", "x"),
			env: map[string]string{
				"TRENDCLIP_CONFIG": badConfig,
			},
			wantContains: []string{
				"config: parse",
			},
			wantNotContains: []string{
				"panic:",
			},
		},
		{
			name: "out points to file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tmp := t.TempDir()
				outFile := filepath.Join(tmp, "out-file")
				if err := os.WriteFile(outFile, []byte("x"), 0o644); err != nil {
					t.Fatalf("write out file fixture: %v", err)
				}
				tr := filepath.Join(tmp, "t.json")
				if err := os.WriteFile(tr, []byte("[]"), 0o644); err != nil {
					t.Fatalf("write transcript fixture: %v", err)
				}
				return []string{"align", "--transcript", tr, "--keywords", "x", "--out", outFile}
			},
			wantContains: []string{
				"not a directory",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

// cliBin is built once by TestMain so cases do not pay for go run.
var cliBin string

func TestMain(m *testing.M) {
	code, err := runWithCLI(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

func runWithCLI(m *testing.M) (int, error) {
	root, err := findRepoRoot()
	if err != nil {
		return 0, err
	}
	dir, err := os.MkdirTemp("", "trendclip-itest-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	cliBin = filepath.Join(dir, "trendclip")
	build := exec.Command("go", "build", "-o", cliBin, "./cmd/trendclip")
	build.Dir = root
	if out, err := build.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("build cli: %w\n%s", err, out)
	}
	return m.Run(), nil
}

func runCLI(t *testing.T, workDir string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cliBin, args...)
	cmd.Dir = workDir
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR":         "1",
			"TERM":             "dumb",
			"TRENDCLIP_CONFIG": "",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: trendclip %s", cliTimeout, strings.Join(args, " "))
	}

	res := cliRunResult{output: string(out)}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.exitCode = exitErr.ExitCode()
	default:
		t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	}
	return res
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
