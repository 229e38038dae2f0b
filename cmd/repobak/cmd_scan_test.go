package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repobak/repobak/internal/language"
	rtest "github.com/repobak/repobak/internal/test"
)

type jsonRepository struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	Fingerprint string `json:"fingerprint"`
}

func readRepositories(t testing.TB, buf *bytes.Buffer) []jsonRepository {
	t.Helper()

	var repos []jsonRepository
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var repo jsonRepository
		rtest.OK(t, json.Unmarshal(sc.Bytes(), &repo))
		repos = append(repos, repo)
	}
	rtest.OK(t, sc.Err())
	return repos
}

func TestRunScan(t *testing.T) {
	gopts, stdout, _ := testGlobalOptions(t)
	source := testSource(t)

	rtest.OK(t, runScan(context.TODO(), ScanOptions{InspectOptions: testInspectOptions()}, gopts, []string{source}))

	out := stdout.String()
	for _, want := range []string{"Language", "firmware", "scripts", "service", "3 repositories"} {
		rtest.Assert(t, strings.Contains(out, want), "output does not contain %q:\n%s", want, out)
	}
}

func TestRunScanJSON(t *testing.T) {
	gopts, stdout, _ := testGlobalOptions(t)
	gopts.JSON = true
	source := testSource(t)

	opts := ScanOptions{Language: language.Go, FilterLanguage: true, InspectOptions: testInspectOptions()}
	rtest.OK(t, runScan(context.TODO(), opts, gopts, []string{source}))

	repos := readRepositories(t, stdout)
	rtest.Equals(t, 1, len(repos))
	rtest.Equals(t, "service", repos[0].Name)
	rtest.Equals(t, "go", repos[0].Language)
	rtest.Equals(t, 32, len(repos[0].Fingerprint))
}

func TestRunScanUnknownLanguage(t *testing.T) {
	gopts, stdout, _ := testGlobalOptions(t)
	gopts.JSON = true
	source := testSource(t)
	rtest.TestCreateFiles(t, source, rtest.TestDir{
		"notes": rtest.TestDir{
			".git":      gitDir,
			"README.md": rtest.TestFile{Content: "# notes\n"},
		},
	})

	// without the filter flag, the zero language lists everything
	opts := ScanOptions{InspectOptions: testInspectOptions()}
	rtest.OK(t, runScan(context.TODO(), opts, gopts, []string{source}))
	rtest.Equals(t, 4, len(readRepositories(t, stdout)))

	stdout.Reset()
	opts.Language = language.Unknown
	opts.FilterLanguage = true
	rtest.OK(t, runScan(context.TODO(), opts, gopts, []string{source}))

	repos := readRepositories(t, stdout)
	rtest.Equals(t, 1, len(repos))
	rtest.Equals(t, "notes", repos[0].Name)
	rtest.Equals(t, "unknown", repos[0].Language)
}

func TestRunScanMatchesBackup(t *testing.T) {
	gopts, stdout, _ := testGlobalOptions(t)
	source := testSource(t)

	inspect := testInspectOptions()
	inspect.KeepVenv = true
	inspect.Excludes = []string{"secret.py"}
	rtest.OK(t, runBackup(context.TODO(), BackupOptions{InspectOptions: inspect}, gopts, []string{source}))

	gopts.JSON = true
	fingerprints := func(dir string) map[string]string {
		stdout.Reset()
		rtest.OK(t, runScan(context.TODO(), ScanOptions{InspectOptions: inspect}, gopts, []string{dir}))
		m := make(map[string]string)
		for _, repo := range readRepositories(t, stdout) {
			m[repo.Language+"/"+repo.Name] = repo.Fingerprint
		}
		return m
	}

	stored := fingerprints(gopts.BackupDir)
	current := fingerprints(source)
	for _, key := range []string{"go/service", "py/scripts"} {
		rtest.Assert(t, stored[key] != "", "%v missing from the backup directory", key)
		rtest.Equals(t, current[key], stored[key])
	}

	// with the default policy the venv is left out, fingerprints differ
	stdout.Reset()
	rtest.OK(t, runScan(context.TODO(), ScanOptions{InspectOptions: testInspectOptions()}, gopts, []string{source}))
	for _, repo := range readRepositories(t, stdout) {
		if repo.Name == "scripts" {
			rtest.Assert(t, repo.Fingerprint != current["py/scripts"], "policy flags did not change the fingerprint")
		}
	}
}

func TestRunScanSkipsBackupDirectory(t *testing.T) {
	gopts, stdout, _ := testGlobalOptions(t)
	source := testSource(t)
	gopts.BackupDir = filepath.Join(source, "bak")

	rtest.OK(t, runBackup(context.TODO(), BackupOptions{InspectOptions: testInspectOptions()}, gopts, []string{source}))

	stdout.Reset()
	gopts.JSON = true
	rtest.OK(t, runScan(context.TODO(), ScanOptions{InspectOptions: testInspectOptions()}, gopts, []string{source}))
	rtest.Equals(t, 3, len(readRepositories(t, stdout)))
}

func TestRunScanMissingDirectory(t *testing.T) {
	gopts, _, _ := testGlobalOptions(t)

	err := runScan(context.TODO(), ScanOptions{InspectOptions: testInspectOptions()}, gopts, []string{gopts.BackupDir + "-missing"})
	rtest.Assert(t, err != nil, "expected an error for a missing directory")
}
