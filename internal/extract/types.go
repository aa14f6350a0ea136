package extract

// Format identifies a supported document format. Dispatch is over this closed
// set of variants; adding a format means adding a variant and an Extractor.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatWord
	FormatSpreadsheet
	FormatImage
	FormatMarkdown
)

// String returns the short format tag used in extraction metadata.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "docx"
	case FormatSpreadsheet:
		return "xlsx"
	case FormatImage:
		return "image"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// FormatFromMIME maps a declared MIME type tag to a format variant.
// Unknown MIME types map to FormatUnknown.
func FormatFromMIME(mimeType string) Format {
	switch mimeType {
	case "application/pdf":
		return FormatPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatWord
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatSpreadsheet
	case "image/png", "image/jpeg", "image/jpg":
		return FormatImage
	case "text/markdown", "text/x-markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}

// Extraction methods recorded in Result.Method.
const (
	MethodTextExtraction = "text_extraction"
	MethodOCR            = "ocr"
	MethodPlaceholder    = "placeholder"
)

// Page is one extraction unit: a PDF page, a Word paragraph, a spreadsheet
// sheet, or a whole image/markdown document.
type Page struct {
	Number    int    `json:"page_number"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count"`
}

// Result is the ephemeral output of a format extractor. It is consumed
// immediately by the chunker and never persisted.
type Result struct {
	Text   string // Concatenated plain text
	Pages  []Page // Ordered page/unit records
	Method string // How the text was obtained
	Format Format // Format variant that produced the result

	// Format-specific metadata.
	PageCount  int          // PDF page count
	Tables     [][][]string // Word table cell grids: tables -> rows -> cells
	SheetNames []string     // Spreadsheet sheet names in workbook order
}
