package phylip

import (
	"bytes"
	"strings"
	"testing"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

const smallMatrix = "4\n" +
	"D8M1\n" +
	"D8M2\t0.25\n" +
	"D8M3\t0.5\t0.375\n" +
	"D8M4\t0.75\t0.625\t0.125\n"

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(smallMatrix), "small.dist")
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4", m.Len())
	}
	if got := m.Label(2); got != "D8M3" {
		t.Errorf("Label(2) = %q, want %q", got, "D8M3")
	}
	if got := m.At(3, 1); got != 0.625 {
		t.Errorf("At(3,1) = %v, want 0.625", got)
	}
	// implied symmetry and zero diagonal
	if got := m.At(1, 3); got != 0.625 {
		t.Errorf("At(1,3) = %v, want 0.625", got)
	}
	if got := m.At(2, 2); got != 0 {
		t.Errorf("At(2,2) = %v, want 0", got)
	}
}

func TestParse_SpacePadded(t *testing.T) {
	m, err := Parse(strings.NewReader("2\na\nb 0.5\n"), "padded.dist")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.At(1, 0); got != 0.5 {
		t.Errorf("At(1,0) = %v, want 0.5", got)
	}
}

func TestParse_SingleSample(t *testing.T) {
	m, err := Parse(strings.NewReader("1\nonly\n"), "one.dist")
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad count", "x\na\n"},
		{"zero count", "0\n"},
		{"truncated row", "3\na\nb\t0.1\nc\t0.2\n"},
		{"extra field", "2\na\nb\t0.1\t0.2\n"},
		{"bad distance", "2\na\nb\tnope\n"},
		{"missing rows", "3\na\nb\t0.1\n"},
		{"too many rows", "2\na\nb\t0.1\nc\t0.2\t0.3\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), tc.name)
			if !core.IsFormatError(err) {
				t.Fatalf("want format error, got %v", err)
			}
		})
	}
}

func TestParse_DuplicateLabel(t *testing.T) {
	_, err := Parse(strings.NewReader("2\na\na\t0.1\n"), "dup.dist")
	if err == nil {
		t.Fatal("want error for duplicate label")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	m, err := Parse(strings.NewReader(smallMatrix), "small.dist")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatal(err)
	}
	if buf.String() != smallMatrix {
		t.Errorf("round trip mismatch:\ngot:\n%swant:\n%s", buf.String(), smallMatrix)
	}
}
