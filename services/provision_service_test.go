package services

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	header := NormalizeHeader([]string{"Username", "Email", "First Name", " Last Name "})

	want := []string{"username", "email", "first_name", "last_name"}
	if !reflect.DeepEqual(header, want) {
		t.Fatalf("header = %v, want %v", header, want)
	}
}

func TestParseRows(t *testing.T) {
	raw := []byte("Username,Email,Password\nalice,alice@example.com,secret\nbob,bob@example.com,hunter2\n")

	header, rows, err := ParseRows(raw)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if !reflect.DeepEqual(header, []string{"username", "email", "password"}) {
		t.Fatalf("header = %v", header)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(rows))
	}
	if rows[0][0] != "alice" || rows[1][0] != "bob" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestParseRowsEmptyFile(t *testing.T) {
	if _, _, err := ParseRows(nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestRowMapZipsAgainstHeader(t *testing.T) {
	header := []string{"username", "email", "password"}

	fields, err := RowMap(header, []string{"alice", "alice@example.com", "secret"})
	if err != nil {
		t.Fatalf("RowMap: %v", err)
	}
	if fields["username"] != "alice" || fields["email"] != "alice@example.com" || fields["password"] != "secret" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestRowMapColumnMismatch(t *testing.T) {
	header := []string{"username", "email", "password"}

	_, err := RowMap(header, []string{"alice", "alice@example.com"})
	if !errors.Is(err, ErrRowColumns) {
		t.Fatalf("err = %v, want ErrRowColumns", err)
	}
}

func TestRowMapTrimsFields(t *testing.T) {
	fields, err := RowMap([]string{"username"}, []string{"  alice  "})
	if err != nil {
		t.Fatalf("RowMap: %v", err)
	}
	if fields["username"] != "alice" {
		t.Fatalf("username = %q, want trimmed value", fields["username"])
	}
}
