package render

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/markdave123-py/PaperSplit/internal/core"
)

func newPDFConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// readImageContext parses the document with pdfcpu once so that per-page
// image extraction does not re-read the file.
func readImageContext(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, newPDFConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// pageImages returns the raw images of one page ordered by object number, so
// the index part of their names is stable between runs.
func pageImages(ctx *model.Context, pageNr int) ([]core.EmbeddedImage, error) {
	byObj, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("extract images of page %d: %w", pageNr, err)
	}

	objNrs := make([]int, 0, len(byObj))
	for nr := range byObj {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	out := make([]core.EmbeddedImage, 0, len(objNrs))
	for _, nr := range objNrs {
		img := byObj[nr]
		if img.Reader == nil {
			continue
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("read image obj %d: %w", nr, err)
		}
		out = append(out, core.EmbeddedImage{Data: data, Ext: imageExt(img.FileType)})
	}
	return out, nil
}

func imageExt(fileType string) string {
	ext := strings.ToLower(strings.TrimPrefix(fileType, "."))
	switch ext {
	case "":
		return "png"
	case "jpeg":
		return "jpg"
	}
	return ext
}

// PageCount reports the number of pages pdfcpu sees in rs. The upload layer
// uses it to reject files that are not readable PDFs before a job is created.
func PageCount(rs io.ReadSeeker) (int, error) {
	return api.PageCount(rs, newPDFConfig())
}
