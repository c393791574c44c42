package media

import (
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEmptyPDF is returned for documents without pages.
var ErrEmptyPDF = errors.New("pdf has no pages")

// InspectPDF validates the document in rs and returns its page count. rs is
// rewound afterwards.
func InspectPDF(rs io.ReadSeeker) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if err := api.Validate(rs, conf); err != nil {
		return 0, fmt.Errorf("invalid pdf: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	pages, err := api.PageCount(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if pages < 1 {
		return 0, ErrEmptyPDF
	}
	return pages, nil
}
