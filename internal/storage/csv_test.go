package storage

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestCSVStorage_WritesHeadersOnce(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCSVStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Close()

	s2, err := NewCSVStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	defer s2.Close()

	ctx := context.Background()
	if err := s2.RecordTrade(ctx, testTradeResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, dir+"/trades.csv")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %v", len(lines), lines)
	}
	if lines[0] != strings.Join(tradesHeader, ",") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestCSVStorage_RecordTrade_WritesExpectedRow(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCSVStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	result := testTradeResult()
	result.ExecutedAt = time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	if err := s.RecordTrade(context.Background(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, dir+"/trades.csv")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(lines))
	}

	row := lines[1]
	if !strings.Contains(row, result.OpportunityID) {
		t.Errorf("expected row to contain opportunity id, got %s", row)
	}
	if !strings.Contains(row, string(types.StatusFilled)) {
		t.Errorf("expected row to contain status, got %s", row)
	}
	if !strings.HasPrefix(row, "2026-07-31T12:00:00") {
		t.Errorf("expected row to start with the RFC3339 timestamp, got %s", row)
	}
}

func TestCSVStorage_RecordOpportunity_WritesExpectedRow(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCSVStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	opp := testOpportunity()

	if err := s.RecordOpportunity(context.Background(), opp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, dir+"/opportunities.csv")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(lines))
	}
	if lines[0] != strings.Join(opportunitiesHeader, ",") {
		t.Errorf("unexpected header: %s", lines[0])
	}

	fields := strings.Split(lines[1], ",")
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d: %v", len(fields), fields)
	}
	if fields[1] != "2" {
		t.Errorf("expected num_markets=2, got %s", fields[1])
	}
}

func TestCSVStorage_ImplementsStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	var _ Storage = s
}
