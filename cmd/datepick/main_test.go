package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMonthCommandPrintsSheet(t *testing.T) {
	holidays := filepath.Join(t.TempDir(), "holidays.ics")
	feed := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//datepick//test//EN",
		"BEGIN:VEVENT",
		"UID:presidents@example.com",
		"DTSTART;VALUE=DATE:20240219",
		"DTEND;VALUE=DATE:20240220",
		"SUMMARY:Presidents Day",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	if err := os.WriteFile(holidays, []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}

	// A wide horizon keeps Feb 2024 inside the expansion window.
	path := writeConfig(t, "timezone: UTC\nweek_start: sunday\nhorizon_months: 600\nlog_level: error\nics:\n  - id: holidays\n    path: "+holidays+"\n")

	out, err := runRoot(t, "--config", path, "month", "--date", "2024-02")
	if err != nil {
		t.Fatalf("month: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "February 2024" {
		t.Fatalf("unexpected title line %q", lines[0])
	}
	if !strings.Contains(lines[1], "Su") || !strings.Contains(lines[1], "Sa") {
		t.Fatalf("unexpected header line %q", lines[1])
	}
	if !strings.Contains(lines[2], "(28)") {
		t.Fatalf("expected leading January days in %q", lines[2])
	}
	if !strings.Contains(out, "19*") {
		t.Fatalf("expected Feb 19 to be marked:\n%s", out)
	}
	if !strings.Contains(out, "Feb 19  Presidents Day") {
		t.Fatalf("expected mark legend:\n%s", out)
	}
	// Title, headers, five weeks, one legend line.
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d:\n%s", len(lines), out)
	}
}

func TestMonthCommandRejectsBadDate(t *testing.T) {
	path := writeConfig(t, "timezone: UTC\nlog_level: error\n")
	if _, err := runRoot(t, "--config", path, "month", "--date", "Feb 2024"); err == nil {
		t.Fatalf("expected error for malformed --date")
	}
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	path := writeConfig(t, "timezone: UTC\nweek_start: someday\n")
	if _, err := runRoot(t, "--config", path, "month"); err == nil {
		t.Fatalf("expected config validation error")
	}
}
