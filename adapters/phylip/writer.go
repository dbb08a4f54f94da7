package phylip

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/dist"
)

// Write serializes a matrix back to the lower-triangular text format.
// Distances are written with the shortest representation that round-trips.
func Write(w io.Writer, m *dist.Matrix) error {
	bw := bufio.NewWriter(w)
	n := m.Len()
	if _, err := fmt.Fprintf(bw, "%d\n", n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := bw.WriteString(string(m.Label(i))); err != nil {
			return err
		}
		for j := 0; j < i; j++ {
			if err := bw.WriteByte('\t'); err != nil {
				return err
			}
			if _, err := bw.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile serializes a matrix to disk.
func WriteFile(path string, m *dist.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating distance matrix file: %w", err)
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
