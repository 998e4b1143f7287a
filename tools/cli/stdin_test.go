package main

import (
	"os"
	"testing"
)

func TestIsStdinPiped(t *testing.T) {
	if isStdinPiped() {
		t.Error("IsStdinPiped() returned true when stdin is not piped")
	}
}

func TestReadStdin(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "empty input",
			input: "",
		},
		{
			name:  "diff with blank and indented lines preserved",
			input: "diff --git a/a.sh b/a.sh\n--- a/a.sh\n+++ b/a.sh\n@@ -1,2 +1,2 @@\n \n-  old\n+  new\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save original stdin and restore it after the test
			oldStdin := os.Stdin
			defer func() { os.Stdin = oldStdin }()

			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("Failed to create pipe: %v", err)
			}
			os.Stdin = r

			go func() {
				defer func() {
					_ = w.Close()
				}()
				if _, err := w.Write([]byte(tt.input)); err != nil {
					t.Errorf("Failed to write to pipe: %v", err)
				}
			}()

			got, err := readStdin()
			if err != nil {
				t.Errorf("readStdin() error = %v", err)
				return
			}
			if got != tt.input {
				t.Errorf("readStdin() = %q, want %q", got, tt.input)
			}
		})
	}
}
