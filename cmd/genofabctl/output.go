package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"genofab/internal/model"
	"genofab/internal/report"
)

// emitArtifacts writes the sequences as FASTA and the insertion reports in
// the requested style. An existing output file is rotated to <name>.bak
// before being replaced.
func emitArtifacts(artifacts []model.RunArtifact, out string, wrap int, style report.Style, annotOut string) error {
	fastaW, closeFasta, err := openOutput(out)
	if err != nil {
		return err
	}
	defer closeFasta()

	for _, artifact := range artifacts {
		name := fmt.Sprintf("genofab_%d %s length=%d", artifact.SequenceSerial, artifact.ID, artifact.Length)
		if err := writeFASTA(fastaW, name, artifact.Sequence, wrap); err != nil {
			return err
		}
	}

	annotW, closeAnnot, err := openOutput(annotOut)
	if err != nil {
		return err
	}
	defer closeAnnot()

	for _, artifact := range artifacts {
		if err := report.Render(annotW, style, artifact.Records); err != nil {
			return err
		}
	}
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	if err := backupExisting(path); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	return w, func() {
		_ = w.Flush()
		_ = f.Close()
	}, nil
}

// backupExisting rotates a pre-existing output file to <path>.bak,
// replacing any previous backup.
func backupExisting(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	bak := path + ".bak"
	if err := os.Remove(bak); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(path, bak)
}

func writeFASTA(w io.Writer, name, seq string, wrap int) error {
	if wrap <= 0 {
		wrap = 60
	}
	if _, err := fmt.Fprintf(w, ">%s\n", name); err != nil {
		return err
	}
	for start := 0; start < len(seq); start += wrap {
		end := start + wrap
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := fmt.Fprintln(w, seq[start:end]); err != nil {
			return err
		}
	}
	return nil
}
