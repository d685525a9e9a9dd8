package extract

import (
	"context"
	"log"
	"strings"
)

// extractContent converts raw document bytes into normalized content.
// Every failure path degrades to empty content: unsupported kinds,
// corrupt files, and OCR errors all yield "no candidates" downstream
// rather than an error.
func (s *Service) extractContent(ctx context.Context, data []byte, kind Kind) Content {
	if len(data) == 0 {
		return Content{}
	}

	switch kind {
	case KindText:
		return Content{Text: decodePlainText(data)}
	case KindWord:
		segs, err := extractDocx(data)
		if err != nil {
			log.Printf("docx extraction failed: %v", err)
			return Content{}
		}
		return contentFromSegments(segs)
	case KindSlides:
		segs, err := extractPptx(data)
		if err != nil {
			log.Printf("pptx extraction failed: %v", err)
			return Content{}
		}
		return contentFromSegments(segs)
	case KindPDF:
		return s.extractPDF(data)
	case KindImage:
		return s.extractImage(ctx, data)
	default:
		return Content{}
	}
}

// decodePlainText tolerates invalid byte sequences by substitution
// instead of failing.
func decodePlainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

func (s *Service) extractImage(ctx context.Context, data []byte) Content {
	if s.ocr == nil {
		return Content{}
	}
	text, err := s.ocr.Recognize(ctx, data)
	if err != nil {
		log.Printf("ocr recognition failed: %v", err)
		return Content{}
	}
	return Content{Text: text}
}

func contentFromSegments(segs []Segment) Content {
	if len(segs) == 0 {
		return Content{}
	}
	texts := make([]string, 0, len(segs))
	for _, seg := range segs {
		texts = append(texts, seg.Text)
	}
	return Content{
		Text:     strings.Join(texts, "\n"),
		Segments: segs,
	}
}
