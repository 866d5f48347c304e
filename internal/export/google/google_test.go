package google

import (
	"context"
	"testing"

	ports "famledger/internal/export"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base gets year prefix", "Records", 2025, "2025 Records"},
		{"already prefixed base kept", "2024 Records", 2025, "2024 Records"},
		{"trims surrounding whitespace", "  Records ", 2025, "2025 Records"},
		{"short base gets prefix", "Log", 2025, "2025 Log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("NewFromEnv() should fail without GOOGLE_SPREADSHEET_ID")
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("NewFromEnv() should fail without service account credentials")
	}
}

func TestAppend_NotInitialized(t *testing.T) {
	client := &Client{spreadsheetID: "sheet-123", recordsSheet: "2025 Records"}

	_, err := client.Append(context.Background(), ports.Row{Date: "2025-03-10"})
	if err == nil {
		t.Fatal("Append() should fail when the sheets service is not initialized")
	}
}
