package extract

import (
	"bytes"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls per-page text in page order. When glyph metadata is
// usable, each visual row becomes a segment, classified as a heading if
// its largest font size meets the configured threshold. Corrupt or
// unparseable documents degrade to whatever text was recovered before
// the failure point; the pdf library panics on some malformed inputs,
// so the whole pass runs under a recover.
func (s *Service) extractPDF(data []byte) (content Content) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pdf extraction panic: %v", r)
			content = Content{}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Printf("open pdf: %v", err)
		return Content{}
	}

	var segs []Segment
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			log.Printf("pdf page %d rows: %v", pageNum, err)
			continue
		}
		for _, row := range rows {
			var line strings.Builder
			maxFont := 0.0
			for _, text := range row.Content {
				line.WriteString(text.S)
				if text.FontSize > maxFont {
					maxFont = text.FontSize
				}
			}
			textLine := strings.TrimSpace(line.String())
			if textLine == "" {
				continue
			}
			kind := SegmentBody
			if maxFont >= s.cfg.HeadingFontSize {
				kind = SegmentHeading
			}
			segs = append(segs, Segment{Kind: kind, Text: textLine})
		}
	}

	if len(segs) > 0 {
		return contentFromSegments(segs)
	}

	// No glyph-level rows recovered; fall back to the flat text stream.
	plain, err := reader.GetPlainText()
	if err != nil {
		log.Printf("pdf plain text: %v", err)
		return Content{}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		log.Printf("read pdf text: %v", err)
		return Content{}
	}
	return Content{Text: buf.String()}
}
