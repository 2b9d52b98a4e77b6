package cli

import (
	"testing"
)

func TestRecordShowRequiresID(t *testing.T) {
	_, err := executeCommand("record", "show")
	if err == nil {
		t.Fatal("expected error when no ID provided")
	}
}

func TestRecordDeleteRequiresOneID(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"record", "delete"}},
		{"two args", []string{"record", "delete", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNoArgCommandsRejectArgs(t *testing.T) {
	for _, name := range []string{"serve", "report", "export", "reset", "config", "version"} {
		t.Run(name, func(t *testing.T) {
			_, err := executeCommand(name, "extra")
			if err == nil {
				t.Fatal("expected error for extra args")
			}
		})
	}
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Setenv("VL_EXCLUDED_WEEKDAY", "Funday")

	_, err := executeCommand("serve", "--db", t.TempDir()+"/vl.db")
	if err == nil {
		t.Fatal("expected invalid config error")
	}
}
