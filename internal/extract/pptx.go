package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx walks every slide of an OOXML slide deck in slide order.
// Title placeholder shapes become heading segments; all other shape text
// and table cell text becomes body segments, preserving traversal order.
func extractPptx(data []byte) ([]Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx archive: %w", err)
	}

	type slidePart struct {
		num  int
		file *zip.File
	}
	var slides []slidePart
	for _, file := range zr.File {
		m := slidePartRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slidePart{num: num, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var segs []Segment
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open slide %d: %w", slide.num, err)
		}
		segs = append(segs, parseSlideXML(rc)...)
		rc.Close()
	}
	return segs, nil
}

// parseSlideXML walks one slide's DrawingML token stream. Text inside a
// shape accumulates per shape; text outside shapes (table cells inside
// graphic frames) accumulates into a trailing body segment.
func parseSlideXML(r io.Reader) []Segment {
	dec := xml.NewDecoder(r)

	var segs []Segment
	var shape strings.Builder
	var loose strings.Builder
	var phType string
	spDepth := 0

	writeText := func(text string) {
		if spDepth > 0 {
			shape.WriteString(text)
		} else {
			loose.WriteString(text)
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				spDepth++
				if spDepth == 1 {
					shape.Reset()
					phType = ""
				}
			case "ph":
				if spDepth > 0 {
					for _, attr := range t.Attr {
						if attr.Name.Local == "type" {
							phType = attr.Value
						}
					}
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					writeText(text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				spDepth--
				if spDepth == 0 {
					text := strings.TrimSpace(shape.String())
					if text == "" {
						continue
					}
					kind := SegmentBody
					if phType == "title" || phType == "ctrTitle" {
						kind = SegmentHeading
					}
					segs = append(segs, Segment{Kind: kind, Text: text})
				}
			case "p":
				// Paragraph boundary inside a text body.
				writeText("\n")
			case "tc":
				// Table cell boundary.
				writeText("\n")
			}
		}
	}

	if text := strings.TrimSpace(loose.String()); text != "" {
		segs = append(segs, Segment{Kind: SegmentBody, Text: text})
	}
	return segs
}
