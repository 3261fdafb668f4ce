package playlist

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"streampack/internal/failure"
)

const (
	MasterFile    = "master.m3u8"
	VariantFile   = "playlist.m3u8"
	SegmentLayout = "%03d.ts"
)

const header = "#EXTM3U\n#EXT-X-VERSION:3\n"

// Entry is one variant stream of the master playlist.
type Entry struct {
	Bandwidth  int
	Resolution string
	URI        string
}

// VariantURI is the master-relative path of a rendition's playlist. It always
// uses forward slashes.
func VariantURI(label string) string {
	return label + "/" + VariantFile
}

// Assembler collects entries for a single job. Entries keep insertion order
// and are never deduplicated; players usually start with the first variant.
type Assembler struct {
	entries []Entry
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

func (a *Assembler) Record(entry Entry) {
	a.entries = append(a.entries, entry)
}

func (a *Assembler) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Assembler) Render() string {
	var b strings.Builder
	b.WriteString(header)

	for _, e := range a.entries {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n%s\n", e.Bandwidth, e.Resolution, e.URI)
	}

	return b.String()
}

// Finalize writes the master playlist into outputDir and returns its path.
func (a *Assembler) Finalize(outputDir string) (string, error) {
	path := filepath.Join(outputDir, MasterFile)

	if err := ioutil.WriteFile(path, []byte(a.Render()), 0o644); err != nil {
		return "", failure.New(failure.IOFailure, "write master playlist", errors.Wrapf(err, "unable to write '%s'", path))
	}

	return path, nil
}

// Exists reports whether a master playlist is present in outputDir.
func Exists(outputDir string) bool {
	_, err := os.Stat(filepath.Join(outputDir, MasterFile))
	return err == nil
}
