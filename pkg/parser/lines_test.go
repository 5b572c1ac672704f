package parser

import "testing"

func TestCountPhysicalLines(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"empty", "", 0},
		{"only blank", "\n\n\n", 0},
		{"only comments", "# one\n  # two\n", 0},
		{"code", "x = 1\ny = 2\n", 2},
		{"code with blanks and comments", "x = 1\n\n# note\ny = 2\n", 2},
		{
			"multiline string counts opening line only",
			"s = \"\"\"first\nsecond\nthird\n\"\"\"\nx = 1\n",
			2,
		},
		{
			"single line triple quote",
			"s = \"\"\"all on one line\"\"\"\nx = 1\n",
			2,
		},
		{
			"docstring",
			"\"\"\"Module.\n\nMore.\n\"\"\"\nx = 1\n",
			2,
		},
		{"single quoted triple", "s = '''a\nb'''\nx = 1\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountPhysicalLines([]byte(tt.source)); got != tt.want {
				t.Errorf("CountPhysicalLines = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTotalLines(t *testing.T) {
	if got := TotalLines([]byte("a\nb\nc")); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
	if got := TotalLines([]byte("a\nb\n")); got != 2 {
		t.Errorf("Expected 2 for trailing newline, got %d", got)
	}
	if got := TotalLines(nil); got != 0 {
		t.Errorf("Expected 0 for empty source, got %d", got)
	}
}
