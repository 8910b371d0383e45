package pdfdoc

import (
    "fmt"
    "image"
)

// OpenError indicates a document could not be opened or parsed as a valid
// paginated document. It is the only fatal condition in an analysis run.
type OpenError struct {
    Path string
    Err  error
}

func (e *OpenError) Error() string {
    return fmt.Sprintf("open document %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Document abstracts a paginated document for rendering. Pages are 1-indexed.
//
// A Document is not safe for concurrent use; callers running pages in
// parallel open one Document per worker.
type Document interface {
    NumPages() int
    // Render rasterizes a page at the given zoom (1.0 = 72 DPI), downscaling
    // to maxWidth if the raster comes out wider. maxWidth <= 0 disables the cap.
    Render(page int, zoom float64, maxWidth int) (*image.Gray, error)
    Close() error
}

// Opener abstracts opening a document path into a Document.
type Opener interface {
    Open(path string) (Document, error)
}
