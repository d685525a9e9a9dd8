package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx reads the main document part of an OOXML word-processor
// file and emits one segment per paragraph, in document order. A
// paragraph whose style name contains "heading" becomes a heading
// segment.
func extractDocx(data []byte) ([]Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		return parseDocumentXML(rc), nil
	}
	return nil, fmt.Errorf("docx archive has no word/document.xml")
}

// parseDocumentXML walks the WordprocessingML token stream, collecting
// run text per paragraph and the paragraph's style name when present.
func parseDocumentXML(r io.Reader) []Segment {
	dec := xml.NewDecoder(r)

	var segs []Segment
	var para strings.Builder
	var style string
	inPara := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
				style = ""
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "t":
				if inPara {
					var text string
					if err := dec.DecodeElement(&text, &t); err == nil {
						para.WriteString(text)
					}
				}
			case "tab":
				if inPara {
					para.WriteByte(' ')
				}
			case "br":
				if inPara {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inPara {
				inPara = false
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				kind := SegmentBody
				if strings.Contains(strings.ToLower(style), "heading") {
					kind = SegmentHeading
				}
				segs = append(segs, Segment{Kind: kind, Text: text})
			}
		}
	}
	return segs
}
