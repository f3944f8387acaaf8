package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/release"
)

func testCandidates() release.CandidateList {
	return release.CandidateList{
		{Index: 1, Entry: &release.VersionEntry{Major: 4, Minor: 2, Patch: 1, Channel: release.ChannelProd, DisplayName: "v4.2.1-Prod"}},
		{Index: 2, Entry: &release.VersionEntry{Major: 4, Minor: 1, Patch: 9, Channel: release.ChannelDevel, DisplayName: "v4.1.9-Devel"}},
		{Index: 3},
	}
}

func TestSelector_Select(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantIndex   int
		wantExit    bool
		wantRejects int
		wantErr     error
	}{
		{name: "first", input: "1\n", wantIndex: 1},
		{name: "padded", input: "  2  \n", wantIndex: 2},
		{name: "sentinel", input: "3\n", wantIndex: 3, wantExit: true},
		{name: "no_trailing_newline", input: "2", wantIndex: 2},
		{name: "windows_line_ending", input: "1\r\n", wantIndex: 1},
		{name: "reprompt_out_of_range", input: "0\n9\n-1\n1\n", wantIndex: 1, wantRejects: 3},
		{name: "reprompt_not_a_number", input: "abc\n2.5\n2\n", wantIndex: 2, wantRejects: 2},
		{name: "blank_lines_ignored", input: "\n\n3\n", wantIndex: 3, wantExit: true},
		{name: "eof_without_choice", input: "", wantErr: ErrNoInput},
		{name: "eof_after_invalid", input: "7\n", wantErr: ErrNoInput, wantRejects: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := NewSelector(Options{In: strings.NewReader(tt.input), Out: &out, NoColor: true})

			got, err := s.Select(context.Background(), testCandidates())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Select() error = %v", err)
				}
				if got.Index != tt.wantIndex || got.IsExit() != tt.wantExit {
					t.Errorf("Select() = %+v, want index %d exit %v", got, tt.wantIndex, tt.wantExit)
				}
			}

			if rejects := strings.Count(out.String(), "Invalid choice"); rejects != tt.wantRejects {
				t.Errorf("rejections = %d, want %d\n%s", rejects, tt.wantRejects, out.String())
			}
		})
	}
}

func TestSelector_Render(t *testing.T) {
	var out bytes.Buffer
	s := NewSelector(Options{In: strings.NewReader("3\n"), Out: &out, NoColor: true})

	if _, err := s.Select(context.Background(), testCandidates()); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"1. v4.2.1-Prod", "2. v4.1.9-Devel", "3. Exit", "Choice [1-3]: "} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Error("NoColor output contains ANSI escapes")
	}
}

func TestSelector_OnlySentinel(t *testing.T) {
	var out bytes.Buffer
	s := NewSelector(Options{In: strings.NewReader("2\n1\n"), Out: &out, NoColor: true})

	got, err := s.Select(context.Background(), release.CandidateList{{Index: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsExit() {
		t.Errorf("Select() = %+v, want exit sentinel", got)
	}
	if !strings.Contains(out.String(), "No releases match") {
		t.Errorf("expected empty-catalog notice:\n%s", out.String())
	}
}

func TestSelector_Errors(t *testing.T) {
	s := NewSelector(Options{In: strings.NewReader("1\n"), Out: &bytes.Buffer{}, NoColor: true})

	if _, err := s.Select(context.Background(), nil); err == nil {
		t.Error("expected error for empty candidate list")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Select(ctx, testCandidates()); !errors.Is(err, context.Canceled) {
		t.Errorf("Select() error = %v, want Canceled", err)
	}
}

func TestSelector_CancelWhileWaiting(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := NewSelector(Options{In: r, Out: &bytes.Buffer{}, NoColor: true})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := s.Select(ctx, testCandidates()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Select() error = %v, want DeadlineExceeded", err)
	}
}
