package main

import "testing"

func TestQRRequiresYearAndMonth(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"qr"}, env.configPath); err == nil {
		t.Fatal("expected error without --year and --month")
	}
	if _, _, err := runCLI(t, []string{"qr", "--year", "2025"}, env.configPath); err == nil {
		t.Fatal("expected error without --month")
	}
}

func TestQRRejectsInvalidMonth(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"qr", "--year", "2025", "--month", "13"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for month 13")
	}
	requireContains(t, err.Error(), "month")
}

func TestQRRejectsInvalidDay(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"qr", "--year", "2025", "--month", "2", "--day", "42"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for day 42")
	}
	requireContains(t, err.Error(), "day")
}
