package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrUnreadablePDF marks a file whose page tree cannot be parsed.
	ErrUnreadablePDF = errors.New("unreadable pdf")
	// ErrPageOutOfRange is returned for a requested page outside 1..total.
	ErrPageOutOfRange = errors.New("page out of range")
)

// CountPages reads the page tree of the PDF at path and returns its page
// count.
func CountPages(path string) (int, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	if pageCount < 1 {
		return 0, fmt.Errorf("%w: document has no pages", ErrUnreadablePDF)
	}
	return pageCount, nil
}

// PageRange returns the ascending pages to process. A nil requested page
// selects every page.
func PageRange(total int, requested *int) ([]int, error) {
	if requested != nil {
		if *requested < 1 || *requested > total {
			return nil, fmt.Errorf("%w: page_num must be between 1 and %d", ErrPageOutOfRange, total)
		}
		return []int{*requested}, nil
	}
	pages := make([]int, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, i)
	}
	return pages, nil
}

// ExtractPage returns a standalone one-page PDF holding page pageNumber of
// the PDF at path. The page content is copied as-is.
func ExtractPage(path string, pageNumber int) ([]byte, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open pdf %s: %w", path, err)
	}
	defer in.Close()

	var out bytes.Buffer
	if err := api.Trim(in, &out, []string{strconv.Itoa(pageNumber)}, relaxedConfig()); err != nil {
		return nil, fmt.Errorf("%w: failed to extract page %d: %v", ErrUnreadablePDF, pageNumber, err)
	}
	return out.Bytes(), nil
}

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}
