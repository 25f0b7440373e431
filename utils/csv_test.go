package utils

import (
	"bytes"
	"testing"
)

func TestEscapeCell(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Ana", "Ana"},
		{"", ""},
		{"=HYPERLINK(\"x\")", "'=HYPERLINK(\"x\")"},
		{"+1 555", "'+1 555"},
		{"-2+3", "'-2+3"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tcmd", "'\tcmd"},
		{"ana@example.com", "ana@example.com"},
		{"2024-05-01", "2024-05-01"},
	}
	for _, tt := range tests {
		if got := EscapeCell(tt.in); got != tt.want {
			t.Errorf("EscapeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSVEscapesFormulas(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"Name", "Email"}, [][]string{
		{"=cmd|' /C calc'!A0", "@evil.com"},
		{"Bea", "bea@example.com"},
	})
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "Name,Email\n'=cmd|' /C calc'!A0,'@evil.com\nBea,bea@example.com\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}
}
