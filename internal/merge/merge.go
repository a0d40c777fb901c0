// Package merge combines several single-slide .pptx decks into one.
// PPTX is a zip of XML parts, so merging means copying slide parts
// from each deck into the base and registering them in the
// presentation part, its relationships, and the content types.
package merge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"deckforge/internal/logging"
)

const (
	slideRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	contentTypesPart = "[Content_Types].xml"
)

var (
	sldIDPattern    = regexp.MustCompile(`<p:sldId id="(\d+)"`)
	rIDPattern      = regexp.MustCompile(`Id="rId(\d+)"`)
	slideNamePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// mediaContentTypes maps media file extensions to their MIME types for
// [Content_Types].xml Default entries.
var mediaContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"wmf":  "image/x-wmf",
	"emf":  "image/x-emf",
}

// archive is one pptx loaded into memory, preserving part order.
type archive struct {
	names []string
	parts map[string][]byte
}

func readArchive(p string) (*archive, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer r.Close()

	a := &archive{parts: make(map[string][]byte)}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s in %s: %w", f.Name, p, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s in %s: %w", f.Name, p, err)
		}
		a.names = append(a.names, f.Name)
		a.parts[f.Name] = data
	}
	return a, nil
}

func (a *archive) add(name string, data []byte) {
	if _, exists := a.parts[name]; !exists {
		a.names = append(a.names, name)
	}
	a.parts[name] = data
}

func (a *archive) writeTo(outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, name := range a.names {
		w, err := zw.Create(name)
		if err != nil {
			out.Close()
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write(a.parts[name]); err != nil {
			out.Close()
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// slideParts returns the archive's slide part names in numeric order.
func (a *archive) slideParts() []string {
	type numbered struct {
		name string
		n    int
	}
	var slides []numbered
	for _, name := range a.names {
		if m := slideNamePattern.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, numbered{name, n})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

// Merge appends every slide from the other decks onto the base deck
// and writes the combined presentation to outPath. Slides keep their
// order: base first, then each other deck in argument order.
func Merge(basePath string, others []string, outPath string, log *logging.Logger) error {
	if log == nil {
		log = logging.Nop().Get(logging.CategoryMerge)
	}

	base, err := readArchive(basePath)
	if err != nil {
		return err
	}

	presXML, ok := base.parts[presentationPart]
	if !ok {
		return fmt.Errorf("%s: not a presentation (missing %s)", basePath, presentationPart)
	}
	relsXML, ok := base.parts[presentationRels]
	if !ok {
		return fmt.Errorf("%s: missing %s", basePath, presentationRels)
	}
	if !bytes.Contains(presXML, []byte("</p:sldIdLst>")) {
		return fmt.Errorf("%s: presentation has no slide list", basePath)
	}

	lastID := maxMatch(sldIDPattern, presXML)
	if lastID == 0 {
		return fmt.Errorf("%s: presentation has no slides", basePath)
	}
	lastRID := maxMatch(rIDPattern, relsXML)
	slideCount := len(base.slideParts())

	var sldIDAdds, relAdds, typeAdds strings.Builder

	for idx, otherPath := range others {
		other, err := readArchive(otherPath)
		if err != nil {
			return err
		}

		// Media names collide across decks (every generated deck has
		// its own image1.png), so copied media gets a per-deck prefix
		// and slide relationships are rewritten to match.
		mediaRenames := make(map[string]string)
		for _, name := range other.names {
			if !strings.HasPrefix(name, "ppt/media/") {
				continue
			}
			oldBase := path.Base(name)
			newBase := fmt.Sprintf("m%d_%s", idx+1, oldBase)
			mediaRenames[oldBase] = newBase
			base.add("ppt/media/"+newBase, other.parts[name])

			ext := strings.TrimPrefix(strings.ToLower(path.Ext(oldBase)), ".")
			if ct, known := mediaContentTypes[ext]; known {
				ensureDefaultContentType(base, &typeAdds, ext, ct)
			}
		}

		for _, slideName := range other.slideParts() {
			slideCount++
			lastID++
			lastRID++
			newName := fmt.Sprintf("slide%d.xml", slideCount)

			base.add("ppt/slides/"+newName, other.parts[slideName])

			oldRels := "ppt/slides/_rels/" + path.Base(slideName) + ".rels"
			if relData, exists := other.parts[oldRels]; exists {
				rels := string(relData)
				for oldBase, newBase := range mediaRenames {
					rels = strings.ReplaceAll(rels, "media/"+oldBase, "media/"+newBase)
				}
				base.add("ppt/slides/_rels/"+newName+".rels", []byte(rels))
			}

			fmt.Fprintf(&sldIDAdds, `<p:sldId id="%d" r:id="rId%d"/>`, lastID, lastRID)
			fmt.Fprintf(&relAdds, `<Relationship Id="rId%d" Type="%s" Target="slides/%s"/>`, lastRID, slideRelType, newName)
			fmt.Fprintf(&typeAdds, `<Override PartName="/ppt/slides/%s" ContentType="%s"/>`, newName, slideContentType)

			log.Debug("Appended %s from %s as %s", slideName, otherPath, newName)
		}
	}

	base.parts[presentationPart] = bytes.Replace(presXML,
		[]byte("</p:sldIdLst>"), []byte(sldIDAdds.String()+"</p:sldIdLst>"), 1)
	base.parts[presentationRels] = bytes.Replace(relsXML,
		[]byte("</Relationships>"), []byte(relAdds.String()+"</Relationships>"), 1)
	if ctXML, exists := base.parts[contentTypesPart]; exists {
		base.parts[contentTypesPart] = bytes.Replace(ctXML,
			[]byte("</Types>"), []byte(typeAdds.String()+"</Types>"), 1)
	}

	if err := base.writeTo(outPath); err != nil {
		return fmt.Errorf("write merged deck: %w", err)
	}
	log.Info("Merged %d decks into %s (%d slides)", len(others)+1, outPath, slideCount)
	return nil
}

// ensureDefaultContentType registers a Default entry for an extension
// unless the base already declares one.
func ensureDefaultContentType(base *archive, typeAdds *strings.Builder, ext, contentType string) {
	marker := fmt.Sprintf(`Extension="%s"`, ext)
	if bytes.Contains(base.parts[contentTypesPart], []byte(marker)) {
		return
	}
	if strings.Contains(typeAdds.String(), marker) {
		return
	}
	fmt.Fprintf(typeAdds, `<Default Extension="%s" ContentType="%s"/>`, ext, contentType)
}

// maxMatch returns the largest integer captured by the pattern's first
// group across all matches, or 0 when nothing matches.
func maxMatch(pattern *regexp.Regexp, data []byte) int {
	max := 0
	for _, m := range pattern.FindAllSubmatch(data, -1) {
		n, err := strconv.Atoi(string(m[1]))
		if err == nil && n > max {
			max = n
		}
	}
	return max
}
